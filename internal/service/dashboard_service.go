package service

import (
	"context"
	"sync"
	"time"

	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	Totals                *repository.DashboardCounts           `json:"totals"`
	TodayAttendanceRate   float64                               `json:"today_attendance_rate"`
	TodayAttendanceCounts map[model.AttendanceStatus]int        `json:"today_attendance_counts"`
	UpcomingMeetings      []repository.DashboardUpcomingMeeting `json:"upcoming_meetings"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
	now  func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo, now: time.Now}
}

// AttendanceRate returns the share of attended marks, LATE counting as attended.
func AttendanceRate(counts map[model.AttendanceStatus]int) float64 {
	attended := counts[model.AttendancePresent] + counts[model.AttendanceLate]
	return percentage(attended, attended+counts[model.AttendanceAbsent])
}

// GetDashboardData fetches the dashboard metrics concurrently.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	now := s.now()
	today := startOfDay(now)

	var (
		counts      *repository.DashboardCounts
		statuses    map[model.AttendanceStatus]int
		upcoming    []repository.DashboardUpcomingMeeting
		countsErr   error
		statusErr   error
		upcomingErr error
		wg          sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		counts, countsErr = s.repo.GetSummaryCounts(ctx, today)
	}()
	go func() {
		defer wg.Done()
		statuses, statusErr = s.repo.GetAttendanceStatusCounts(ctx, today)
	}()
	go func() {
		defer wg.Done()
		upcoming, upcomingErr = s.repo.GetUpcomingMeetings(ctx, now, 5)
	}()
	wg.Wait()

	if countsErr != nil {
		return nil, countsErr
	}
	if statusErr != nil {
		return nil, statusErr
	}
	if upcomingErr != nil {
		return nil, upcomingErr
	}

	return &DashboardData{
		Totals:                counts,
		TodayAttendanceRate:   AttendanceRate(statuses),
		TodayAttendanceCounts: statuses,
		UpcomingMeetings:      upcoming,
	}, nil
}
