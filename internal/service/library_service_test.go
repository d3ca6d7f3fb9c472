package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverdueDays(t *testing.T) {
	due := date(2026, 3, 10)
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"before due", date(2026, 3, 1), 0},
		{"on due date", due, 0},
		{"late on due date", due.Add(23*time.Hour + 59*time.Minute), 0},
		{"one day after", date(2026, 3, 11), 1},
		{"just past midnight", date(2026, 3, 11).Add(time.Minute), 1},
		{"across month end", date(2026, 4, 2), 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverdueDays(due, tt.at))
		})
	}
}

func TestOverdueDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	due := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	at := time.Date(2026, 3, 9, 10, 0, 0, 0, loc)
	assert.Equal(t, 2, OverdueDays(due, at))
}

func TestComputeFine(t *testing.T) {
	due := date(2026, 1, 1)
	assert.Equal(t, 0.0, ComputeFine(due, date(2025, 12, 30), 2))
	assert.Equal(t, 10.0, ComputeFine(due, date(2026, 1, 6), 2))
	assert.Equal(t, 7.5, ComputeFine(due, date(2026, 1, 4), 2.5))
}

func TestPendingFinesFrom(t *testing.T) {
	now := date(2026, 2, 20)
	returnedAt := date(2026, 2, 15)
	issues := []model.BookIssue{
		{
			ID:        uuid.New(),
			StudentID: uuid.New(),
			BookTitle: "Accruing",
			DueDate:   date(2026, 2, 10),
			Status:    model.IssueStatusIssued,
		},
		{
			ID:         uuid.New(),
			StudentID:  uuid.New(),
			BookTitle:  "Settled late",
			DueDate:    date(2026, 2, 12),
			Status:     model.IssueStatusReturned,
			ReturnedAt: &returnedAt,
			FineAmount: 6,
		},
		{
			ID:        uuid.New(),
			StudentID: uuid.New(),
			BookTitle: "Not yet due",
			DueDate:   date(2026, 2, 25),
			Status:    model.IssueStatusIssued,
		},
	}

	fines, total := PendingFinesFrom(issues, now, 2)

	require.Len(t, fines, 2)
	assert.Equal(t, "Accruing", fines[0].BookTitle)
	assert.True(t, fines[0].Accruing)
	assert.Equal(t, 10, fines[0].OverdueDays)
	assert.Equal(t, 20.0, fines[0].Amount)

	assert.Equal(t, "Settled late", fines[1].BookTitle)
	assert.False(t, fines[1].Accruing)
	assert.Equal(t, 3, fines[1].OverdueDays)
	assert.Equal(t, 6.0, fines[1].Amount)

	assert.Equal(t, 26.0, total)
}
