package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// DashboardCounts holds the headline totals of the admin dashboard.
type DashboardCounts struct {
	Students         int     `json:"students"`
	Faculty          int     `json:"faculty"`
	Librarians       int     `json:"librarians"`
	Departments      int     `json:"departments"`
	Classes          int     `json:"classes"`
	Books            int     `json:"books"`
	ActiveIssues     int     `json:"active_issues"`
	OverdueIssues    int     `json:"overdue_issues"`
	PendingFineTotal float64 `json:"pending_fine_total"`
	ActiveCalls      int     `json:"active_calls"`
}

// DashboardUpcomingMeeting represents minimal data for upcoming faculty meetings.
type DashboardUpcomingMeeting struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	OrganizerName string    `json:"organizer_name"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Duration      int       `json:"duration_minutes"`
}

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
// Accruing fines are included as written by the nightly sweep.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context, today time.Time) (*DashboardCounts, error) {
	c := &DashboardCounts{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM users WHERE role = 'FACULTY'),
			(SELECT COUNT(*) FROM users WHERE role = 'LIBRARIAN'),
			(SELECT COUNT(*) FROM departments),
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM book_issues WHERE status = 'ISSUED'),
			(SELECT COUNT(*) FROM book_issues WHERE status = 'ISSUED' AND due_date < $1),
			(SELECT COALESCE(SUM(fine_amount), 0)::float8 FROM book_issues WHERE NOT fine_paid AND fine_amount > 0),
			(SELECT COUNT(*) FROM group_calls WHERE status = 'ACTIVE')`,
		today,
	).Scan(&c.Students, &c.Faculty, &c.Librarians, &c.Departments, &c.Classes, &c.Books,
		&c.ActiveIssues, &c.OverdueIssues, &c.PendingFineTotal, &c.ActiveCalls)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetAttendanceStatusCounts retrieves the distribution of marks on a day.
func (r *DashboardRepository) GetAttendanceStatusCounts(ctx context.Context, day time.Time) (map[model.AttendanceStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM attendance_records WHERE date = $1 GROUP BY status`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.AttendanceStatus]int{
		model.AttendancePresent: 0,
		model.AttendanceAbsent:  0,
		model.AttendanceLate:    0,
	}
	for rows.Next() {
		var status model.AttendanceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// GetUpcomingMeetings retrieves the next N faculty meetings.
func (r *DashboardRepository) GetUpcomingMeetings(ctx context.Context, now time.Time, limit int) ([]DashboardUpcomingMeeting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.title, u.name, m.scheduled_at, m.duration_minutes
		 FROM meetings m JOIN users u ON u.id = m.organizer_id
		 WHERE m.scheduled_at > $1
		 ORDER BY m.scheduled_at ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := []DashboardUpcomingMeeting{}
	for rows.Next() {
		var m DashboardUpcomingMeeting
		if err := rows.Scan(&m.ID, &m.Title, &m.OrganizerName, &m.ScheduledAt, &m.Duration); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}
