package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

// Burnout score weights and level thresholds.
const (
	weightTeachingHour = 1.0
	weightLabSession   = 1.5
	weightMentee       = 0.5
	weightMeeting      = 2.0

	thresholdElevated = 25.0
	thresholdHigh     = 35.0
	thresholdCritical = 45.0
)

// BurnoutScore is the weighted sum of a faculty member's weekly load, rounded to two decimals.
func BurnoutScore(in model.WorkloadInputs) float64 {
	score := in.TeachingHours*weightTeachingHour +
		float64(in.LabSessions)*weightLabSession +
		float64(in.MenteeCount)*weightMentee +
		float64(in.MeetingsPerWeek)*weightMeeting
	return math.Round(score*100) / 100
}

// BurnoutLevelFor classifies a score.
func BurnoutLevelFor(score float64) model.BurnoutLevel {
	switch {
	case score < thresholdElevated:
		return model.BurnoutNormal
	case score < thresholdHigh:
		return model.BurnoutElevated
	case score < thresholdCritical:
		return model.BurnoutHigh
	default:
		return model.BurnoutCritical
	}
}

// Recommendations suggests actions for a level, pointing at the heaviest inputs.
func Recommendations(level model.BurnoutLevel, in model.WorkloadInputs) []string {
	switch level {
	case model.BurnoutNormal:
		return []string{"Workload is within healthy limits."}
	case model.BurnoutElevated:
		recs := []string{"Monitor workload over the coming weeks."}
		if in.MeetingsPerWeek > 3 {
			recs = append(recs, "Consolidate or shorten recurring meetings.")
		}
		return recs
	}

	recs := []string{}
	if in.TeachingHours > 18 {
		recs = append(recs, "Redistribute teaching hours to other faculty in the department.")
	}
	if in.LabSessions > 4 {
		recs = append(recs, "Assign lab assistants or share lab sessions.")
	}
	if in.MenteeCount > 20 {
		recs = append(recs, "Reassign some mentees to faculty with lighter mentoring loads.")
	}
	if in.MeetingsPerWeek > 3 {
		recs = append(recs, "Reduce meeting attendance to essential meetings only.")
	}
	if level == model.BurnoutCritical {
		recs = append(recs, "Schedule a workload review with the head of department this week.")
	} else {
		recs = append(recs, "Avoid assigning additional responsibilities this term.")
	}
	return recs
}

// ComputeWorkload turns raw inputs into a scored workload.
func ComputeWorkload(row repository.FacultyLoadRow, now time.Time) model.FacultyWorkload {
	in := model.WorkloadInputs{
		TeachingHours:   row.TeachingHours,
		LabSessions:     row.LabSessions,
		MenteeCount:     row.MenteeCount,
		MeetingsPerWeek: row.MeetingsPerWeek,
	}
	score := BurnoutScore(in)
	level := BurnoutLevelFor(score)
	return model.FacultyWorkload{
		FacultyID:       row.FacultyID,
		FacultyName:     row.FacultyName,
		DepartmentID:    row.DepartmentID,
		Inputs:          in,
		Score:           score,
		Level:           level,
		Recommendations: Recommendations(level, in),
		ComputedAt:      now,
	}
}

// BuildWorkloadReport scores every row and sorts by score, highest first.
func BuildWorkloadReport(rows []repository.FacultyLoadRow, departmentID *uuid.UUID, now time.Time) *model.WorkloadReport {
	report := &model.WorkloadReport{
		DepartmentID: departmentID,
		Faculty:      make([]model.FacultyWorkload, 0, len(rows)),
		Distribution: map[model.BurnoutLevel]int{
			model.BurnoutNormal:   0,
			model.BurnoutElevated: 0,
			model.BurnoutHigh:     0,
			model.BurnoutCritical: 0,
		},
		ComputedAt: now,
	}

	var total float64
	for _, row := range rows {
		w := ComputeWorkload(row, now)
		report.Faculty = append(report.Faculty, w)
		report.Distribution[w.Level]++
		total += w.Score
	}
	sort.SliceStable(report.Faculty, func(i, j int) bool {
		return report.Faculty[i].Score > report.Faculty[j].Score
	})
	if len(rows) > 0 {
		report.AverageScore = math.Round(total/float64(len(rows))*100) / 100
	}
	return report
}

// WorkloadService scores faculty workload and manages teaching assignments.
type WorkloadService struct {
	cfg          *config.Config
	workloadRepo *repository.WorkloadRepository
	users        roleLookup
	rdb          *redis.Client
	log          zerolog.Logger
	now          func() time.Time
}

// NewWorkloadService creates a new WorkloadService.
func NewWorkloadService(cfg *config.Config, workloadRepo *repository.WorkloadRepository, users roleLookup, rdb *redis.Client, log zerolog.Logger) *WorkloadService {
	return &WorkloadService{
		cfg:          cfg,
		workloadRepo: workloadRepo,
		users:        users,
		rdb:          rdb,
		log:          log.With().Str("component", "workload_service").Logger(),
		now:          time.Now,
	}
}

func (s *WorkloadService) cacheGet(ctx context.Context, key string, v interface{}) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (s *WorkloadService) cacheSet(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.cfg.WorkloadCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache workload")
	}
}

// ForFaculty returns the scored workload of one faculty member.
func (s *WorkloadService) ForFaculty(ctx context.Context, facultyID uuid.UUID) (*model.FacultyWorkload, error) {
	key := config.CacheKey.FacultyWorkloadKey(facultyID.String())
	var cached model.FacultyWorkload
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	now := s.now()
	rows, err := s.workloadRepo.LoadInputs(ctx, &facultyID, nil, now)
	if err != nil {
		return nil, fmt.Errorf("load workload inputs: %w", err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}

	w := ComputeWorkload(rows[0], now)
	s.cacheSet(ctx, key, w)
	return &w, nil
}

// Report scores every faculty member, optionally within one department.
func (s *WorkloadService) Report(ctx context.Context, departmentID *uuid.UUID) (*model.WorkloadReport, error) {
	deptKey := ""
	if departmentID != nil {
		deptKey = departmentID.String()
	}
	key := config.CacheKey.WorkloadReportKey(deptKey)
	var cached model.WorkloadReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	now := s.now()
	rows, err := s.workloadRepo.LoadInputs(ctx, nil, departmentID, now)
	if err != nil {
		return nil, fmt.Errorf("load workload inputs: %w", err)
	}

	report := BuildWorkloadReport(rows, departmentID, now)
	s.cacheSet(ctx, key, report)
	return report, nil
}

// Invalidate drops every cached workload and report.
func (s *WorkloadService) Invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, config.CacheKey.WorkloadPattern(), 100).Result()
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to scan workload cache")
			return
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Failed to drop workload cache")
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// ─── Assignments ────────────────────────────────────────────────────

// ListAssignments returns teaching assignments, optionally for one faculty member.
func (s *WorkloadService) ListAssignments(ctx context.Context, facultyID *uuid.UUID) ([]model.FacultyAssignment, error) {
	return s.workloadRepo.ListAssignments(ctx, facultyID)
}

// GetAssignment returns one assignment.
func (s *WorkloadService) GetAssignment(ctx context.Context, id uuid.UUID) (*model.FacultyAssignment, error) {
	return s.workloadRepo.GetAssignment(ctx, id)
}

func (s *WorkloadService) assignmentFromRequest(ctx context.Context, req *model.FacultyAssignmentRequest) (*model.FacultyAssignment, error) {
	facultyID, err := resolveFaculty(ctx, s.users, req.FacultyID)
	if err != nil {
		return nil, err
	}
	if facultyID == nil {
		return nil, ErrInvalidFaculty
	}
	classID, err := uuid.Parse(req.ClassID)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return &model.FacultyAssignment{
		FacultyID:            *facultyID,
		ClassID:              classID,
		Subject:              strings.TrimSpace(req.Subject),
		TeachingHoursPerWeek: req.TeachingHoursPerWeek,
		LabSessionsPerWeek:   req.LabSessionsPerWeek,
		AcademicYear:         strings.TrimSpace(req.AcademicYear),
	}, nil
}

// CreateAssignment records a teaching assignment.
func (s *WorkloadService) CreateAssignment(ctx context.Context, req *model.FacultyAssignmentRequest) (*model.FacultyAssignment, error) {
	a, err := s.assignmentFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.workloadRepo.CreateAssignment(ctx, a); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return s.workloadRepo.GetAssignment(ctx, a.ID)
}

// UpdateAssignment replaces a teaching assignment.
func (s *WorkloadService) UpdateAssignment(ctx context.Context, id uuid.UUID, req *model.FacultyAssignmentRequest) (*model.FacultyAssignment, error) {
	a, err := s.assignmentFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	a.ID = id
	if err := s.workloadRepo.UpdateAssignment(ctx, a); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return s.workloadRepo.GetAssignment(ctx, id)
}

// DeleteAssignment removes a teaching assignment.
func (s *WorkloadService) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	if err := s.workloadRepo.DeleteAssignment(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}
