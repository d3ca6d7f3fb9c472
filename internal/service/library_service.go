package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/validator"
)

// OverdueDays counts whole calendar days from due to at, in at's location.
// Returns 0 when at is on or before the due date.
func OverdueDays(due, at time.Time) int {
	dy, dm, dd := due.Date()
	ay, am, ad := at.Date()
	d := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	a := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	days := int(a.Sub(d).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ComputeFine returns the overdue fine: overdue days times the daily rate.
func ComputeFine(due, at time.Time, finePerDay float64) float64 {
	return float64(OverdueDays(due, at)) * finePerDay
}

// LibraryMe is a student's own library view.
type LibraryMe struct {
	Active     []model.BookIssue   `json:"active"`
	History    []model.BookIssue   `json:"history"`
	Fines      []model.PendingFine `json:"fines"`
	TotalDue   float64             `json:"total_due"`
	IssueLimit int                 `json:"issue_limit"`
	CanBorrow  bool                `json:"can_borrow"`
}

// LibraryService handles the book catalogue and the issue/return/fine workflow.
type LibraryService struct {
	cfg         *config.Config
	libraryRepo *repository.LibraryRepository
	sweepRepo   *repository.LibraryRepository
	studentRepo *repository.StudentRepository
	settings    numericSettings
	now         func() time.Time
}

// NewLibraryService creates a new LibraryService. sweepRepo runs on the
// service-role pool and is only used by the nightly fine sweep.
func NewLibraryService(
	cfg *config.Config,
	libraryRepo *repository.LibraryRepository,
	sweepRepo *repository.LibraryRepository,
	studentRepo *repository.StudentRepository,
	settings numericSettings,
) *LibraryService {
	return &LibraryService{
		cfg:         cfg,
		libraryRepo: libraryRepo,
		sweepRepo:   sweepRepo,
		studentRepo: studentRepo,
		settings:    settings,
		now:         time.Now,
	}
}

// FinePerDay returns the active daily fine rate.
func (s *LibraryService) FinePerDay(ctx context.Context) float64 {
	return s.settings.Float(ctx, model.SettingFinePerDay, s.cfg.FinePerDay)
}

// ─── Books ──────────────────────────────────────────────────────────

func (s *LibraryService) ListBooks(ctx context.Context, search string, page, perPage int) ([]model.Book, *response.Pagination, error) {
	page, perPage, offset := response.NormalizePage(page, perPage)
	books, total, err := s.libraryRepo.ListBooks(ctx, strings.TrimSpace(search), perPage, offset)
	if err != nil {
		return nil, nil, err
	}
	return books, response.NewPagination(page, perPage, total), nil
}

func (s *LibraryService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return s.libraryRepo.GetBook(ctx, id)
}

func (s *LibraryService) CreateBook(ctx context.Context, req *model.BookRequest) (*model.Book, error) {
	b := bookFromRequest(req)
	if err := s.libraryRepo.CreateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *LibraryService) UpdateBook(ctx context.Context, id uuid.UUID, req *model.BookRequest) (*model.Book, error) {
	b := bookFromRequest(req)
	b.ID = id
	if err := s.libraryRepo.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *LibraryService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.libraryRepo.DeleteBook(ctx, id)
}

func bookFromRequest(req *model.BookRequest) *model.Book {
	return &model.Book{
		ISBN:        strings.ReplaceAll(strings.TrimSpace(req.ISBN), " ", ""),
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Category:    strings.TrimSpace(req.Category),
		TotalCopies: req.TotalCopies,
	}
}

// ─── Issues ─────────────────────────────────────────────────────────

// Issue lends a book. Due date defaults to today plus the loan period.
func (s *LibraryService) Issue(ctx context.Context, req *model.IssueBookRequest, issuedBy uuid.UUID) (*model.BookIssue, error) {
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return nil, err
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())
	due := today.AddDate(0, 0, s.settings.Int(ctx, model.SettingLoanDays, s.cfg.LoanDays))
	if req.DueDate != "" {
		if due, err = validator.ParseDate(req.DueDate); err != nil {
			return nil, err
		}
		if due.Before(today) {
			return nil, ErrInvalidRange
		}
	}

	issue := &model.BookIssue{BookID: bookID, StudentID: studentID, IssuedBy: &issuedBy, DueDate: due}
	if err := s.libraryRepo.Issue(ctx, issue, s.cfg.MaxActiveIssues, today); err != nil {
		return nil, err
	}
	return s.libraryRepo.GetIssue(ctx, issue.ID)
}

// Return closes an issue and settles its fine.
func (s *LibraryService) Return(ctx context.Context, id uuid.UUID) (*model.BookIssue, error) {
	rate := s.FinePerDay(ctx)
	issue, err := s.libraryRepo.Return(ctx, id, s.now(), func(due, returned time.Time) float64 {
		return ComputeFine(due, returned, rate)
	})
	if err != nil {
		return nil, err
	}
	s.decorate(issue, rate)
	return issue, nil
}

// PayFine marks a returned issue's fine as paid.
func (s *LibraryService) PayFine(ctx context.Context, id uuid.UUID) (*model.BookIssue, error) {
	if err := s.libraryRepo.PayFine(ctx, id); err != nil {
		return nil, err
	}
	issue, err := s.libraryRepo.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(issue, s.FinePerDay(ctx))
	return issue, nil
}

// GetIssue retrieves an issue with live overdue figures.
func (s *LibraryService) GetIssue(ctx context.Context, id uuid.UUID) (*model.BookIssue, error) {
	issue, err := s.libraryRepo.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(issue, s.FinePerDay(ctx))
	return issue, nil
}

// ListIssues lists issues with live overdue figures.
func (s *LibraryService) ListIssues(ctx context.Context, q *model.IssueQuery) ([]model.BookIssue, *response.Pagination, error) {
	page, perPage, offset := response.NormalizePage(q.Page, q.PerPage)
	f := repository.IssueFilter{Status: q.Status, Today: startOfDay(s.now())}
	if q.StudentID != "" {
		id, err := uuid.Parse(q.StudentID)
		if err != nil {
			return nil, nil, err
		}
		f.StudentID = &id
	}

	issues, total, err := s.libraryRepo.ListIssues(ctx, f, perPage, offset)
	if err != nil {
		return nil, nil, err
	}
	rate := s.FinePerDay(ctx)
	for i := range issues {
		s.decorate(&issues[i], rate)
	}
	return issues, response.NewPagination(page, perPage, total), nil
}

// PendingFines lists unpaid fines; unreturned issues are priced as of today.
func (s *LibraryService) PendingFines(ctx context.Context) ([]model.PendingFine, float64, error) {
	issues, err := s.libraryRepo.ListOutstanding(ctx, startOfDay(s.now()))
	if err != nil {
		return nil, 0, err
	}
	fines, total := PendingFinesFrom(issues, s.now(), s.FinePerDay(ctx))
	return fines, total, nil
}

// ForStudentUser returns the library view of the student behind a STUDENT account.
func (s *LibraryService) ForStudentUser(ctx context.Context, userID uuid.UUID) (*LibraryMe, error) {
	st, err := s.studentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	issues, _, err := s.libraryRepo.ListIssues(ctx,
		repository.IssueFilter{StudentID: &st.ID, Today: startOfDay(s.now())}, 100, 0)
	if err != nil {
		return nil, err
	}

	rate := s.FinePerDay(ctx)
	me := &LibraryMe{
		Active:     []model.BookIssue{},
		History:    []model.BookIssue{},
		IssueLimit: s.cfg.MaxActiveIssues,
	}
	outstanding := make([]model.BookIssue, 0)
	for i := range issues {
		s.decorate(&issues[i], rate)
		is := issues[i]
		if is.Status == model.IssueStatusIssued {
			me.Active = append(me.Active, is)
		} else {
			me.History = append(me.History, is)
		}
		if !is.FinePaid && (is.FineAmount > 0 || is.OverdueDays > 0) {
			outstanding = append(outstanding, is)
		}
	}
	me.Fines, me.TotalDue = PendingFinesFrom(outstanding, s.now(), rate)
	me.CanBorrow = len(me.Active) < me.IssueLimit && len(me.Fines) == 0
	return me, nil
}

// decorate fills OverdueDays and, for unreturned issues, the running fine.
func (s *LibraryService) decorate(issue *model.BookIssue, rate float64) {
	if issue.Status == model.IssueStatusReturned && issue.ReturnedAt != nil {
		issue.OverdueDays = OverdueDays(issue.DueDate, issue.ReturnedAt.In(time.Local))
		return
	}
	now := s.now()
	issue.OverdueDays = OverdueDays(issue.DueDate, now)
	issue.FineAmount = ComputeFine(issue.DueDate, now, rate)
}

// PendingFinesFrom prices outstanding issues: settled fines as stored, unreturned
// ones as accruing up to now.
func PendingFinesFrom(issues []model.BookIssue, now time.Time, rate float64) ([]model.PendingFine, float64) {
	fines := make([]model.PendingFine, 0, len(issues))
	var total float64
	for _, is := range issues {
		pf := model.PendingFine{
			IssueID:     is.ID,
			StudentID:   is.StudentID,
			StudentName: is.StudentName,
			RollNumber:  is.RollNumber,
			BookTitle:   is.BookTitle,
			DueDate:     is.DueDate,
		}
		if is.Status == model.IssueStatusIssued {
			pf.Accruing = true
			pf.OverdueDays = OverdueDays(is.DueDate, now)
			pf.Amount = ComputeFine(is.DueDate, now, rate)
		} else {
			if is.ReturnedAt != nil {
				pf.OverdueDays = OverdueDays(is.DueDate, is.ReturnedAt.In(now.Location()))
			}
			pf.Amount = is.FineAmount
		}
		if pf.Amount <= 0 {
			continue
		}
		total += pf.Amount
		fines = append(fines, pf)
	}
	return fines, total
}

// SweepOverdueFines persists running fines for unreturned overdue issues.
func (s *LibraryService) SweepOverdueFines(ctx context.Context) (int64, error) {
	return s.sweepRepo.SweepOverdueFines(ctx, startOfDay(s.now()), s.FinePerDay(ctx))
}
