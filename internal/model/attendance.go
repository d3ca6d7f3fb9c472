package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the mark given to a student for one period.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// AttendanceRecord is one row per student/period/date.
type AttendanceRecord struct {
	ID          uuid.UUID        `json:"id"`
	StudentID   uuid.UUID        `json:"student_id"`
	StudentName string           `json:"student_name,omitempty"`
	RollNumber  string           `json:"roll_number,omitempty"`
	ClassID     uuid.UUID        `json:"class_id"`
	Date        time.Time        `json:"date"`
	Period      int              `json:"period"`
	Subject     string           `json:"subject"`
	Status      AttendanceStatus `json:"status"`
	MarkedBy    *uuid.UUID       `json:"marked_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AttendanceEntry is one student's mark inside a bulk request.
type AttendanceEntry struct {
	StudentID string           `json:"student_id" binding:"required,uuid"`
	Status    AttendanceStatus `json:"status" binding:"required,oneof=PRESENT ABSENT LATE"`
}

// MarkAttendanceRequest marks a whole class for one period.
type MarkAttendanceRequest struct {
	ClassID string            `json:"class_id" binding:"required,uuid"`
	Date    string            `json:"date" binding:"required,isodate"`
	Period  int               `json:"period" binding:"required,min=1,max=12"`
	Subject string            `json:"subject" binding:"required,min=1,max=100"`
	Entries []AttendanceEntry `json:"entries" binding:"required,min=1,max=300,dive"`
}

// AttendanceQuery filters attendance listings.
type AttendanceQuery struct {
	ClassID   string `form:"class_id" binding:"omitempty,uuid"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	From      string `form:"from" binding:"omitempty,isodate"`
	To        string `form:"to" binding:"omitempty,isodate"`
}

// StudentAttendanceSummary aggregates one student's marks over a range.
type StudentAttendanceSummary struct {
	StudentID     uuid.UUID `json:"student_id"`
	StudentName   string    `json:"student_name"`
	RollNumber    string    `json:"roll_number"`
	Total         int       `json:"total"`
	Present       int       `json:"present"`
	Absent        int       `json:"absent"`
	Late          int       `json:"late"`
	Percentage    float64   `json:"percentage"`
	LowAttendance bool      `json:"low_attendance"`
}

// SubjectAttendance is a per-subject breakdown for one student.
type SubjectAttendance struct {
	Subject    string  `json:"subject"`
	Total      int     `json:"total"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// PeriodAttendance is one period on a given day with its marks.
type PeriodAttendance struct {
	Period  int                `json:"period"`
	Subject string             `json:"subject"`
	Present int                `json:"present"`
	Absent  int                `json:"absent"`
	Late    int                `json:"late"`
	Records []AttendanceRecord `json:"records"`
}

// DailyAttendance groups a day's periods.
type DailyAttendance struct {
	Date    string             `json:"date"`
	Periods []PeriodAttendance `json:"periods"`
}
