package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/validator"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidSpreadsheet is returned when an import file cannot be read as xlsx.
var ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

// Import row outcomes.
const (
	ImportCreated = "created"
	ImportSkipped = "skipped"
)

const importHashWorkers = 4

// StudentSheetRow is one data row of an import spreadsheet.
type StudentSheetRow struct {
	Row           int
	RollNumber    string
	Name          string
	Email         string
	GuardianPhone string
}

// ParseStudentSheet reads the first sheet of an xlsx file. The first row is a
// header; columns are roll_number, name, email and an optional guardian_phone.
// Fully blank rows are dropped.
func ParseStudentSheet(r io.Reader) ([]StudentSheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidSpreadsheet)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}

	out := make([]StudentSheetRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		sr := StudentSheetRow{
			Row:           i + 1,
			RollNumber:    cell(0),
			Name:          cell(1),
			Email:         strings.ToLower(cell(2)),
			GuardianPhone: cell(3),
		}
		if sr.RollNumber == "" && sr.Name == "" && sr.Email == "" {
			continue
		}
		out = append(out, sr)
	}
	return out, nil
}

type studentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Student, error)
	ListPaginated(ctx context.Context, classID *uuid.UUID, search string, limit, offset int) ([]model.Student, int, error)
	Create(ctx context.Context, u *model.User, s *model.Student) error
	Update(ctx context.Context, s *model.Student, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StudentService handles student business logic.
type StudentService struct {
	studentRepo studentStore
	classRepo   *repository.ClassRepository
	users       roleLookup
	authService *AuthService
	workload    workloadInvalidator
	validate    *govalidator.Validate
}

// NewStudentService creates a new StudentService. Mentor changes drop cached
// workload scores through workload, which may be nil when no cache is running.
func NewStudentService(
	studentRepo studentStore,
	classRepo *repository.ClassRepository,
	users roleLookup,
	authService *AuthService,
	workload workloadInvalidator,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		classRepo:   classRepo,
		users:       users,
		authService: authService,
		workload:    workload,
		validate:    govalidator.New(),
	}
}

// GetByID retrieves a student by profile ID.
func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// GetByUserID retrieves the profile of a STUDENT user.
func (s *StudentService) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Student, error) {
	return s.studentRepo.GetByUserID(ctx, userID)
}

// List retrieves students with pagination, optional class filter and search.
func (s *StudentService) List(ctx context.Context, classID *uuid.UUID, search string, page, perPage int) ([]model.Student, *response.Pagination, error) {
	page, perPage, offset := response.NormalizePage(page, perPage)
	students, total, err := s.studentRepo.ListPaginated(ctx, classID, strings.TrimSpace(search), perPage, offset)
	if err != nil {
		return nil, nil, err
	}
	return students, response.NewPagination(page, perPage, total), nil
}

// Create inserts a student account and profile. Without a password the roll
// number becomes the initial password.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	st, err := s.fromRequest(ctx, req.RollNumber, req.Name, req.Email, req.ClassID, req.MentorID,
		req.DateOfBirth, req.BloodGroup, req.GuardianPhone)
	if err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = st.RollNumber
	}
	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Email: st.Email, Name: st.Name, PasswordHash: hash}
	if err := s.studentRepo.Create(ctx, u, st); err != nil {
		return nil, err
	}
	if st.MentorID != nil {
		s.invalidateWorkload(ctx)
	}
	return s.studentRepo.GetByID(ctx, st.ID)
}

// Update modifies a student. A non-empty password replaces the old one.
func (s *StudentService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStudentRequest) (*model.Student, error) {
	st, err := s.fromRequest(ctx, req.RollNumber, req.Name, req.Email, req.ClassID, req.MentorID,
		req.DateOfBirth, req.BloodGroup, req.GuardianPhone)
	if err != nil {
		return nil, err
	}
	st.ID = id

	var hash string
	if req.Password != "" {
		if hash, err = s.authService.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if err := s.studentRepo.Update(ctx, st, hash); err != nil {
		return nil, err
	}
	// The previous mentor is not known here, so any update may move a mentee.
	s.invalidateWorkload(ctx)
	if hash != "" {
		_ = s.authService.Logout(ctx, st.UserID)
	}
	return s.studentRepo.GetByID(ctx, id)
}

// Delete removes a student and its account.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateWorkload(ctx)
	return nil
}

// invalidateWorkload drops cached workload scores, which count mentees.
func (s *StudentService) invalidateWorkload(ctx context.Context) {
	if s.workload != nil {
		s.workload.Invalidate(ctx)
	}
}

// Import creates students in a class from an xlsx upload. Invalid, duplicate
// and conflicting rows are skipped with a reason; the rest are created.
func (s *StudentService) Import(ctx context.Context, classID uuid.UUID, r io.Reader) (*model.ImportResult, error) {
	if _, err := s.classRepo.GetByID(ctx, classID); err != nil {
		return nil, err
	}

	rows, err := ParseStudentSheet(r)
	if err != nil {
		return nil, err
	}

	result := &model.ImportResult{Rows: make([]model.ImportRowResult, len(rows))}
	valid := s.screenImportRows(rows, result.Rows)

	// Hashing dominates import time; spread it over a few goroutines.
	hashes := make([]string, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importHashWorkers)
	for _, idx := range valid {
		idx := idx
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			h, err := s.authService.HashPassword(rows[idx].RollNumber)
			hashes[idx] = h
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hash passwords: %w", err)
	}

	for _, idx := range valid {
		row := rows[idx]
		u := &model.User{Email: row.Email, Name: row.Name, PasswordHash: hashes[idx]}
		st := &model.Student{
			RollNumber:    row.RollNumber,
			Name:          row.Name,
			Email:         row.Email,
			ClassID:       classID,
			GuardianPhone: row.GuardianPhone,
		}
		if err := s.studentRepo.Create(ctx, u, st); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				result.Rows[idx].Status = ImportSkipped
				result.Rows[idx].Reason = "roll number or email already exists"
				continue
			}
			return nil, fmt.Errorf("import row %d: %w", row.Row, err)
		}
		result.Rows[idx].Status = ImportCreated
	}

	for _, r := range result.Rows {
		if r.Status == ImportCreated {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// screenImportRows fills out with per-row verdicts for rows that fail validation
// and returns the indexes of rows worth inserting.
func (s *StudentService) screenImportRows(rows []StudentSheetRow, out []model.ImportRowResult) []int {
	seenRoll := make(map[string]bool, len(rows))
	seenEmail := make(map[string]bool, len(rows))
	valid := make([]int, 0, len(rows))

	for i, row := range rows {
		out[i] = model.ImportRowResult{Row: row.Row, RollNumber: row.RollNumber}
		reason := ""
		switch {
		case row.RollNumber == "" || row.Name == "":
			reason = "missing roll number or name"
		case len(row.RollNumber) > 30 || len(row.Name) > 100:
			reason = "roll number or name too long"
		case s.validate.Var(row.Email, "required,email,max=255") != nil:
			reason = "invalid email"
		case len(row.GuardianPhone) > 20:
			reason = "guardian phone too long"
		case seenRoll[strings.ToUpper(row.RollNumber)]:
			reason = "duplicate roll number in file"
		case seenEmail[row.Email]:
			reason = "duplicate email in file"
		}
		if reason != "" {
			out[i].Status = ImportSkipped
			out[i].Reason = reason
			continue
		}
		seenRoll[strings.ToUpper(row.RollNumber)] = true
		seenEmail[row.Email] = true
		valid = append(valid, i)
	}
	return valid
}

func (s *StudentService) fromRequest(ctx context.Context, roll, name, email, classID, mentorID, dob, blood, phone string) (*model.Student, error) {
	cid, err := uuid.Parse(classID)
	if err != nil {
		return nil, err
	}
	mentor, err := resolveFaculty(ctx, s.users, mentorID)
	if err != nil {
		return nil, err
	}

	var birth *time.Time
	if dob != "" {
		t, err := validator.ParseDate(dob)
		if err != nil {
			return nil, err
		}
		birth = &t
	}

	return &model.Student{
		RollNumber:    strings.TrimSpace(roll),
		Name:          strings.TrimSpace(name),
		Email:         strings.ToLower(strings.TrimSpace(email)),
		ClassID:       cid,
		MentorID:      mentor,
		DateOfBirth:   birth,
		BloodGroup:    blood,
		GuardianPhone: strings.TrimSpace(phone),
	}, nil
}
