package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// Library workflow errors raised inside issue/return transactions.
var (
	ErrBookUnavailable   = errors.New("no copies available")
	ErrIssueLimit        = errors.New("student reached the active issue limit")
	ErrUnpaidFines       = errors.New("student has unpaid or accruing fines")
	ErrAlreadyReturned   = errors.New("issue already returned")
	ErrNoFineDue         = errors.New("no unpaid fine on this issue")
	ErrCopiesBelowIssued = errors.New("total copies below copies currently issued")
)

// FineFunc computes the fine for an issue due on due and returned at returned.
type FineFunc func(due, returned time.Time) float64

// IssueFilter narrows the issue listing. Status may be ISSUED, RETURNED or OVERDUE.
type IssueFilter struct {
	Status    string
	StudentID *uuid.UUID
	Today     time.Time
}

const issueSelect = `SELECT i.id, i.book_id, b.title, i.student_id, u.name, s.roll_number, i.issued_by,
	       i.issued_at, i.due_date, i.returned_at, i.fine_amount, i.fine_paid, i.status
	FROM book_issues i
	JOIN books b ON b.id = i.book_id
	JOIN students s ON s.id = i.student_id
	JOIN users u ON u.id = s.user_id`

func scanIssue(row pgx.Row) (*model.BookIssue, error) {
	i := &model.BookIssue{}
	err := row.Scan(&i.ID, &i.BookID, &i.BookTitle, &i.StudentID, &i.StudentName, &i.RollNumber, &i.IssuedBy,
		&i.IssuedAt, &i.DueDate, &i.ReturnedAt, &i.FineAmount, &i.FinePaid, &i.Status)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// LibraryRepository handles books and book issues.
type LibraryRepository struct {
	pool *pgxpool.Pool
}

// NewLibraryRepository creates a new LibraryRepository.
func NewLibraryRepository(pool *pgxpool.Pool) *LibraryRepository {
	return &LibraryRepository{pool: pool}
}

// ─── Books ──────────────────────────────────────────────────────────

// GetBook retrieves a book by ID.
func (r *LibraryRepository) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b := &model.Book{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, isbn, title, author, category, total_copies, available_copies, created_at, updated_at
		 FROM books WHERE id = $1`, id,
	).Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Category, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks retrieves books matching a title/author/ISBN search.
func (r *LibraryRepository) ListBooks(ctx context.Context, search string, limit, offset int) ([]model.Book, int, error) {
	where := ` WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%' OR isbn = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`+where, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, isbn, title, author, category, total_copies, available_copies, created_at, updated_at
		 FROM books`+where+` ORDER BY title LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Category, &b.TotalCopies, &b.AvailableCopies,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	return books, total, rows.Err()
}

// CreateBook inserts a book with every copy available.
func (r *LibraryRepository) CreateBook(ctx context.Context, b *model.Book) error {
	b.AvailableCopies = b.TotalCopies
	err := r.pool.QueryRow(ctx,
		`INSERT INTO books (isbn, title, author, category, total_copies, available_copies)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING id, created_at, updated_at`,
		b.ISBN, b.Title, b.Author, b.Category, b.TotalCopies,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapWriteError(err)
}

// UpdateBook modifies a book. Changing total_copies shifts available_copies by the
// same delta and is rejected when it would drop below the copies on loan.
func (r *LibraryRepository) UpdateBook(ctx context.Context, b *model.Book) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE books
		 SET isbn = $1, title = $2, author = $3, category = $4,
		     available_copies = available_copies + ($5 - total_copies),
		     total_copies = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6 AND $5 >= total_copies - available_copies
		 RETURNING available_copies, created_at, updated_at`,
		b.ISBN, b.Title, b.Author, b.Category, b.TotalCopies, b.ID,
	).Scan(&b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetBook(ctx, b.ID); getErr != nil {
			return getErr
		}
		return ErrCopiesBelowIssued
	}
	return mapWriteError(err)
}

// DeleteBook removes a book. Fails with ErrReferenced while issues reference it.
func (r *LibraryRepository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id))
}

// ─── Issues ─────────────────────────────────────────────────────────

// GetIssue retrieves an issue by ID.
func (r *LibraryRepository) GetIssue(ctx context.Context, id uuid.UUID) (*model.BookIssue, error) {
	return scanIssue(r.pool.QueryRow(ctx, issueSelect+` WHERE i.id = $1`, id))
}

// ListIssues retrieves issues, newest first.
func (r *LibraryRepository) ListIssues(ctx context.Context, f IssueFilter, limit, offset int) ([]model.BookIssue, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	argIdx := 1

	switch f.Status {
	case string(model.IssueStatusIssued), string(model.IssueStatusReturned):
		where += ` AND i.status = $` + strconv.Itoa(argIdx)
		args = append(args, f.Status)
		argIdx++
	case "OVERDUE":
		where += ` AND i.status = 'ISSUED' AND i.due_date < $` + strconv.Itoa(argIdx)
		args = append(args, f.Today)
		argIdx++
	}
	if f.StudentID != nil {
		where += ` AND i.student_id = $` + strconv.Itoa(argIdx)
		args = append(args, *f.StudentID)
		argIdx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM book_issues i` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := issueSelect + where + ` ORDER BY i.issued_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	issues := []model.BookIssue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		issues = append(issues, *i)
	}
	return issues, total, rows.Err()
}

// ListOutstanding returns issues carrying a fine that has not been paid:
// returned with a fine, or still out past the due date.
func (r *LibraryRepository) ListOutstanding(ctx context.Context, today time.Time) ([]model.BookIssue, error) {
	rows, err := r.pool.Query(ctx,
		issueSelect+` WHERE NOT i.fine_paid
		   AND ((i.status = 'RETURNED' AND i.fine_amount > 0) OR (i.status = 'ISSUED' AND i.due_date < $1))
		 ORDER BY i.due_date`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := []model.BookIssue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *i)
	}
	return issues, rows.Err()
}

// Issue lends one copy of a book to a student. The book and student rows are
// locked so concurrent issues cannot oversubscribe copies or the issue limit.
func (r *LibraryRepository) Issue(ctx context.Context, issue *model.BookIssue, maxActive int, today time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var available int
	if err := tx.QueryRow(ctx, `SELECT available_copies FROM books WHERE id = $1 FOR UPDATE`, issue.BookID).
		Scan(&available); err != nil {
		return err
	}
	if available <= 0 {
		return ErrBookUnavailable
	}

	var active int
	var blocked bool
	err = tx.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM book_issues WHERE student_id = s.id AND status = 'ISSUED'),
			EXISTS (SELECT 1 FROM book_issues
			        WHERE student_id = s.id AND NOT fine_paid
			          AND ((status = 'RETURNED' AND fine_amount > 0) OR (status = 'ISSUED' AND due_date < $2)))
		 FROM students s WHERE s.id = $1 FOR UPDATE OF s`,
		issue.StudentID, today,
	).Scan(&active, &blocked)
	if err != nil {
		return err
	}
	if active >= maxActive {
		return ErrIssueLimit
	}
	if blocked {
		return ErrUnpaidFines
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO book_issues (book_id, student_id, issued_by, due_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, issued_at, status`,
		issue.BookID, issue.StudentID, issue.IssuedBy, issue.DueDate,
	).Scan(&issue.ID, &issue.IssuedAt, &issue.Status)
	if err != nil {
		return mapWriteError(err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE books SET available_copies = available_copies - 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		issue.BookID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Return closes an issue, settles its fine and puts the copy back on the shelf.
func (r *LibraryRepository) Return(ctx context.Context, id uuid.UUID, returnedAt time.Time, fine FineFunc) (*model.BookIssue, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var bookID uuid.UUID
	var due time.Time
	var status model.IssueStatus
	if err := tx.QueryRow(ctx,
		`SELECT book_id, due_date, status FROM book_issues WHERE id = $1 FOR UPDATE`, id,
	).Scan(&bookID, &due, &status); err != nil {
		return nil, err
	}
	if status == model.IssueStatusReturned {
		return nil, ErrAlreadyReturned
	}

	amount := fine(due, returnedAt)
	if _, err := tx.Exec(ctx,
		`UPDATE book_issues SET status = 'RETURNED', returned_at = $1, fine_amount = $2, fine_paid = ($2 = 0)
		 WHERE id = $3`,
		returnedAt, amount, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE books SET available_copies = available_copies + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		bookID); err != nil {
		return nil, err
	}

	issue, err := scanIssue(tx.QueryRow(ctx, issueSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return issue, nil
}

// PayFine marks a returned issue's fine as paid.
func (r *LibraryRepository) PayFine(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE book_issues SET fine_paid = TRUE
		 WHERE id = $1 AND status = 'RETURNED' AND fine_amount > 0 AND NOT fine_paid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetIssue(ctx, id); err != nil {
			return err
		}
		return ErrNoFineDue
	}
	return nil
}

// SweepOverdueFines writes the running fine onto every unreturned overdue issue.
func (r *LibraryRepository) SweepOverdueFines(ctx context.Context, today time.Time, finePerDay float64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE book_issues
		 SET fine_amount = ($1::date - due_date) * $2::numeric
		 WHERE status = 'ISSUED' AND due_date < $1::date`,
		today, finePerDay)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
