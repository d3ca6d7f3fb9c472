package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/database"
	"github.com/vconnect/portal-backend/internal/logger"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/service"
)

const (
	seedDepartmentCode = "CSE"
	seedFacultyEmail   = "coordinator.cse@vconnect.local"
	seedPassword       = "vconnect123"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pools, err := database.NewPools(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pools.Close()

	userRepo := repository.NewUserRepository(pools.Service)
	deptRepo := repository.NewDepartmentRepository(pools.Service)
	classRepo := repository.NewClassRepository(pools.Service)
	studentRepo := repository.NewStudentRepository(pools.Service)

	authService := service.NewAuthService(cfg, nil, userRepo)
	userService := service.NewUserService(userRepo, authService)
	deptService := service.NewDepartmentService(deptRepo, userRepo)
	classService := service.NewClassService(classRepo, studentRepo, userRepo)
	studentService := service.NewStudentService(studentRepo, classRepo, userRepo, authService, nil)

	// ─── Department ────────────────────────────────────────────────────
	dept, err := findOrCreateDepartment(ctx, deptService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed department")
	}
	fmt.Printf("Department %s: %s\n", dept.Code, dept.ID)

	// ─── Coordinator ───────────────────────────────────────────────────
	faculty, err := userRepo.GetByEmail(ctx, seedFacultyEmail)
	if repository.IsNotFound(err) {
		faculty, err = userService.Create(ctx, &model.CreateUserRequest{
			Email:        seedFacultyEmail,
			Name:         "Anita Rao",
			Password:     seedPassword,
			Role:         model.RoleFaculty,
			DepartmentID: dept.ID.String(),
			Designation:  "Assistant Professor",
		})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed faculty")
	}
	fmt.Printf("Faculty %s: %s\n", faculty.Email, faculty.ID)

	// ─── Class ─────────────────────────────────────────────────────────
	class, err := findOrCreateClass(ctx, classService, dept.ID.String(), faculty.ID.String())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed class")
	}
	fmt.Printf("Class %s: %s\n", class.Name, class.ID)

	// ─── Students ──────────────────────────────────────────────────────
	names := []string{
		"Aarav Sharma", "Diya Patel", "Vihaan Reddy", "Ananya Iyer", "Arjun Nair",
		"Ishita Gupta", "Kabir Singh", "Meera Pillai", "Rohan Das", "Saanvi Joshi",
		"Aditya Kulkarni", "Kavya Menon", "Nikhil Verma", "Pooja Bhat", "Rahul Mehta",
		"Sneha Rao", "Tanvi Desai", "Varun Chopra", "Zara Khan", "Yash Agarwal",
		"Aditi Kapoor", "Dev Malhotra", "Gauri Sinha", "Harsh Jain", "Isha Banerjee",
		"Karan Thakur", "Lavanya Krishnan", "Manav Bose", "Nisha Hegde", "Om Prakash",
	}

	successCount := 0
	for i, name := range names {
		roll := fmt.Sprintf("%s%03d", seedDepartmentCode, i+1)
		email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@students.vconnect.local"

		_, err := studentService.Create(ctx, &model.CreateStudentRequest{
			RollNumber: roll,
			Name:       name,
			Email:      email,
			ClassID:    class.ID.String(),
			MentorID:   faculty.ID.String(),
		})
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			fmt.Printf("Skipping %s (%s): already exists\n", name, roll)
		case err != nil:
			fmt.Printf("Error creating student %s (%s): %v\n", name, roll, err)
		default:
			successCount++
			if (i+1)%10 == 0 {
				fmt.Printf("Created %d students...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Added %d/%d students. Initial passwords are their roll numbers.\n", successCount, len(names))
}

func findOrCreateDepartment(ctx context.Context, svc *service.DepartmentService) (*model.Department, error) {
	depts, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range depts {
		if depts[i].Code == seedDepartmentCode {
			return &depts[i], nil
		}
	}
	return svc.Create(ctx, &model.DepartmentRequest{
		Code: seedDepartmentCode,
		Name: "Computer Science and Engineering",
	})
}

func findOrCreateClass(ctx context.Context, svc *service.ClassService, deptID, coordinatorID string) (*model.Class, error) {
	req := &model.ClassRequest{
		DepartmentID:  deptID,
		Name:          "CSE 3A",
		Year:          3,
		Section:       "A",
		Semester:      5,
		CoordinatorID: coordinatorID,
	}

	classes, err := svc.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].Name == req.Name {
			return &classes[i], nil
		}
	}
	return svc.Create(ctx, req)
}
