package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/database"
	"github.com/vconnect/portal-backend/internal/logger"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pools, err := database.NewPools(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pools.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Account management runs on the service-role pool, as in the API.
	authService := service.NewAuthService(cfg, nil, repository.NewUserRepository(pools.App))
	userService := service.NewUserService(repository.NewUserRepository(pools.Service), authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Portal Account ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println() // Newline after password input

	fmt.Print("Enter Role [ADMIN/FACULTY/LIBRARIAN] (default ADMIN): ")
	role, _ := reader.ReadString('\n')
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" {
		role = string(model.RoleAdmin)
	}

	req := &model.CreateUserRequest{
		Email:    email,
		Name:     name,
		Password: string(bytePassword),
		Role:     model.Role(role),
	}

	// Same rules as POST /api/v1/users.
	validator.Setup()
	if fields := validator.Struct(req); fields != nil {
		fmt.Println("Error:")
		for field, msg := range fields {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.Create(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create account")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %s\n", user.Role, user.Name, user.Email, user.ID)
}
