package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/validator"
	"github.com/xuri/excelize/v2"
)

// Attendance errors.
var (
	ErrFutureDate        = errors.New("attendance cannot be marked for a future date")
	ErrStudentNotInClass = errors.New("one or more students do not belong to the class")
	ErrInvalidRange      = errors.New("from must not be after to")
)

type numericSettings interface {
	Float(ctx context.Context, key string, fallback float64) float64
	Int(ctx context.Context, key string, fallback int) int
}

// MyAttendance is the logged-in student's overview.
type MyAttendance struct {
	Summary  model.StudentAttendanceSummary `json:"summary"`
	Subjects []model.SubjectAttendance      `json:"subjects"`
}

// AttendanceService handles marking and aggregating attendance.
type AttendanceService struct {
	cfg            *config.Config
	attendanceRepo *repository.AttendanceRepository
	studentRepo    *repository.StudentRepository
	classRepo      *repository.ClassRepository
	settings       numericSettings
	now            func() time.Time
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(
	cfg *config.Config,
	attendanceRepo *repository.AttendanceRepository,
	studentRepo *repository.StudentRepository,
	classRepo *repository.ClassRepository,
	settings numericSettings,
) *AttendanceService {
	return &AttendanceService{
		cfg:            cfg,
		attendanceRepo: attendanceRepo,
		studentRepo:    studentRepo,
		classRepo:      classRepo,
		settings:       settings,
		now:            time.Now,
	}
}

// Mark upserts one period's marks for a class.
func (s *AttendanceService) Mark(ctx context.Context, req *model.MarkAttendanceRequest, markedBy uuid.UUID) (int64, error) {
	date, err := validator.ParseDate(req.Date)
	if err != nil {
		return 0, err
	}
	if date.After(startOfDay(s.now())) {
		return 0, ErrFutureDate
	}

	classID, err := uuid.Parse(req.ClassID)
	if err != nil {
		return 0, err
	}
	if _, err := s.classRepo.GetByID(ctx, classID); err != nil {
		return 0, err
	}

	entries := make(map[uuid.UUID]model.AttendanceStatus, len(req.Entries))
	ids := make([]uuid.UUID, 0, len(req.Entries))
	for _, e := range req.Entries {
		id, err := uuid.Parse(e.StudentID)
		if err != nil {
			return 0, err
		}
		if _, dup := entries[id]; !dup {
			ids = append(ids, id)
		}
		entries[id] = e.Status
	}

	found, err := s.studentRepo.IDsInClass(ctx, classID, ids)
	if err != nil {
		return 0, err
	}
	if len(found) != len(ids) {
		return 0, ErrStudentNotInClass
	}

	return s.attendanceRepo.UpsertPeriod(ctx, classID, date, req.Period, req.Subject, markedBy, entries)
}

// List returns raw records matching the query.
func (s *AttendanceService) List(ctx context.Context, q *model.AttendanceQuery) ([]model.AttendanceRecord, error) {
	f, err := filterFromQuery(q.ClassID, q.StudentID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return s.attendanceRepo.List(ctx, f)
}

// ClassSummary returns per-student totals for a class, sorted by roll number.
func (s *AttendanceService) ClassSummary(ctx context.Context, classID uuid.UUID, from, to string) ([]model.StudentAttendanceSummary, error) {
	roster, records, err := s.classData(ctx, classID, from, to)
	if err != nil {
		return nil, err
	}
	return SummarizeByStudent(roster, records, s.threshold(ctx)), nil
}

// Daily returns a class's records grouped by date then period.
func (s *AttendanceService) Daily(ctx context.Context, classID uuid.UUID, from, to string) ([]model.DailyAttendance, error) {
	if _, err := s.classRepo.GetByID(ctx, classID); err != nil {
		return nil, err
	}
	f, err := filterFromQuery(classID.String(), "", from, to)
	if err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return GroupDaily(records), nil
}

// ForStudentUser returns the overview of the student behind a STUDENT account.
func (s *AttendanceService) ForStudentUser(ctx context.Context, userID uuid.UUID, from, to string) (*MyAttendance, error) {
	st, err := s.studentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	f, err := filterFromQuery("", st.ID.String(), from, to)
	if err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	summaries := SummarizeByStudent([]model.Student{*st}, records, s.threshold(ctx))
	return &MyAttendance{Summary: summaries[0], Subjects: SubjectBreakdown(records)}, nil
}

// Export renders a class register as xlsx: one row per student, one column
// per date/period, then totals.
func (s *AttendanceService) Export(ctx context.Context, classID uuid.UUID, from, to string) (*bytes.Buffer, string, error) {
	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, "", err
	}
	roster, records, err := s.classData(ctx, classID, from, to)
	if err != nil {
		return nil, "", err
	}
	buf, err := BuildAttendanceWorkbook(roster, records, s.threshold(ctx))
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("attendance-%s-%s.xlsx", class.DepartmentCode, class.Name)
	return buf, filename, nil
}

func (s *AttendanceService) classData(ctx context.Context, classID uuid.UUID, from, to string) ([]model.Student, []model.AttendanceRecord, error) {
	if _, err := s.classRepo.GetByID(ctx, classID); err != nil {
		return nil, nil, err
	}
	f, err := filterFromQuery(classID.String(), "", from, to)
	if err != nil {
		return nil, nil, err
	}
	roster, err := s.studentRepo.ListByClass(ctx, classID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.attendanceRepo.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return roster, records, nil
}

func (s *AttendanceService) threshold(ctx context.Context) float64 {
	return s.settings.Float(ctx, model.SettingAttendanceFloor, s.cfg.LowAttendanceThreshold)
}

// ─── Aggregation ────────────────────────────────────────────────────

// SummarizeByStudent totals records per roster student. LATE counts as attended.
// Students below threshold percent are flagged; students with no marks are not.
func SummarizeByStudent(roster []model.Student, records []model.AttendanceRecord, threshold float64) []model.StudentAttendanceSummary {
	byID := make(map[uuid.UUID]*model.StudentAttendanceSummary, len(roster))
	out := make([]model.StudentAttendanceSummary, len(roster))
	for i, st := range roster {
		out[i] = model.StudentAttendanceSummary{StudentID: st.ID, StudentName: st.Name, RollNumber: st.RollNumber}
		byID[st.ID] = &out[i]
	}

	for _, r := range records {
		sum, ok := byID[r.StudentID]
		if !ok {
			continue
		}
		sum.Total++
		switch r.Status {
		case model.AttendancePresent:
			sum.Present++
		case model.AttendanceAbsent:
			sum.Absent++
		case model.AttendanceLate:
			sum.Late++
		}
	}

	for i := range out {
		out[i].Percentage = percentage(out[i].Present+out[i].Late, out[i].Total)
		out[i].LowAttendance = out[i].Total > 0 && out[i].Percentage < threshold
	}

	sort.SliceStable(out, func(i, j int) bool { return rollNumberLess(out[i].RollNumber, out[j].RollNumber) })
	return out
}

// rollNumberLess orders roll numbers shortest first, then lexically, so CS9
// precedes CS10. Roster queries use the same order.
func rollNumberLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// GroupDaily groups records by date (newest first) then period (ascending).
func GroupDaily(records []model.AttendanceRecord) []model.DailyAttendance {
	type key struct {
		date   string
		period int
	}
	periods := make(map[key]*model.PeriodAttendance)
	dates := make(map[string][]int)

	for _, r := range records {
		d := r.Date.Format(validator.DateLayout)
		k := key{d, r.Period}
		p, ok := periods[k]
		if !ok {
			p = &model.PeriodAttendance{Period: r.Period, Subject: r.Subject, Records: []model.AttendanceRecord{}}
			periods[k] = p
			dates[d] = append(dates[d], r.Period)
		}
		switch r.Status {
		case model.AttendancePresent:
			p.Present++
		case model.AttendanceAbsent:
			p.Absent++
		case model.AttendanceLate:
			p.Late++
		}
		p.Records = append(p.Records, r)
	}

	days := make([]string, 0, len(dates))
	for d := range dates {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	out := make([]model.DailyAttendance, 0, len(days))
	for _, d := range days {
		ps := dates[d]
		sort.Ints(ps)
		day := model.DailyAttendance{Date: d, Periods: make([]model.PeriodAttendance, 0, len(ps))}
		for _, p := range ps {
			day.Periods = append(day.Periods, *periods[key{d, p}])
		}
		out = append(out, day)
	}
	return out
}

// SubjectBreakdown totals records per subject, sorted by subject name.
func SubjectBreakdown(records []model.AttendanceRecord) []model.SubjectAttendance {
	bySubject := make(map[string]*model.SubjectAttendance)
	for _, r := range records {
		sa, ok := bySubject[r.Subject]
		if !ok {
			sa = &model.SubjectAttendance{Subject: r.Subject}
			bySubject[r.Subject] = sa
		}
		sa.Total++
		if r.Status != model.AttendanceAbsent {
			sa.Attended++
		}
	}

	out := make([]model.SubjectAttendance, 0, len(bySubject))
	for _, sa := range bySubject {
		sa.Percentage = percentage(sa.Attended, sa.Total)
		out = append(out, *sa)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}

// BuildAttendanceWorkbook renders the register as an xlsx workbook.
func BuildAttendanceWorkbook(roster []model.Student, records []model.AttendanceRecord, threshold float64) (*bytes.Buffer, error) {
	type slot struct {
		date   string
		period int
	}
	slotSet := make(map[slot]bool)
	marks := make(map[uuid.UUID]map[slot]model.AttendanceStatus)
	for _, r := range records {
		sl := slot{r.Date.Format(validator.DateLayout), r.Period}
		slotSet[sl] = true
		if marks[r.StudentID] == nil {
			marks[r.StudentID] = make(map[slot]model.AttendanceStatus)
		}
		marks[r.StudentID][sl] = r.Status
	}
	slots := make([]slot, 0, len(slotSet))
	for sl := range slotSet {
		slots = append(slots, sl)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].date != slots[j].date {
			return slots[i].date < slots[j].date
		}
		return slots[i].period < slots[j].period
	})

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"Roll Number", "Name"}
	for _, sl := range slots {
		header = append(header, fmt.Sprintf("%s P%d", sl.date, sl.period))
	}
	header = append(header, "Present", "Absent", "Late", "Percentage", "Low Attendance")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	summaries := SummarizeByStudent(roster, records, threshold)
	for i, sum := range summaries {
		row := []interface{}{sum.RollNumber, sum.StudentName}
		for _, sl := range slots {
			row = append(row, statusLetter(marks[sum.StudentID][sl]))
		}
		low := ""
		if sum.LowAttendance {
			low = "YES"
		}
		row = append(row, sum.Present, sum.Absent, sum.Late, sum.Percentage, low)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func statusLetter(st model.AttendanceStatus) string {
	switch st {
	case model.AttendancePresent:
		return "P"
	case model.AttendanceAbsent:
		return "A"
	case model.AttendanceLate:
		return "L"
	}
	return ""
}

// percentage returns part/total as a percentage rounded to two decimals.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(total)) / 100
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func filterFromQuery(classID, studentID, from, to string) (repository.AttendanceFilter, error) {
	var f repository.AttendanceFilter
	if classID != "" {
		id, err := uuid.Parse(classID)
		if err != nil {
			return f, err
		}
		f.ClassID = &id
	}
	if studentID != "" {
		id, err := uuid.Parse(studentID)
		if err != nil {
			return f, err
		}
		f.StudentID = &id
	}
	if from != "" {
		t, err := validator.ParseDate(from)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if to != "" {
		t, err := validator.ParseDate(to)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, ErrInvalidRange
	}
	return f, nil
}
