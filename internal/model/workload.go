package model

import (
	"time"

	"github.com/google/uuid"
)

// BurnoutLevel classifies a workload score.
type BurnoutLevel string

const (
	BurnoutNormal   BurnoutLevel = "normal"
	BurnoutElevated BurnoutLevel = "elevated"
	BurnoutHigh     BurnoutLevel = "high"
	BurnoutCritical BurnoutLevel = "critical"
)

// FacultyAssignment is a teaching load entry of a faculty for a class.
type FacultyAssignment struct {
	ID                   uuid.UUID `json:"id"`
	FacultyID            uuid.UUID `json:"faculty_id"`
	FacultyName          string    `json:"faculty_name,omitempty"`
	ClassID              uuid.UUID `json:"class_id"`
	ClassName            string    `json:"class_name,omitempty"`
	Subject              string    `json:"subject"`
	TeachingHoursPerWeek float64   `json:"teaching_hours_per_week"`
	LabSessionsPerWeek   int       `json:"lab_sessions_per_week"`
	AcademicYear         string    `json:"academic_year"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// FacultyAssignmentRequest is the payload for creating or updating an assignment.
type FacultyAssignmentRequest struct {
	FacultyID            string  `json:"faculty_id" binding:"required,uuid"`
	ClassID              string  `json:"class_id" binding:"required,uuid"`
	Subject              string  `json:"subject" binding:"required,min=1,max=100"`
	TeachingHoursPerWeek float64 `json:"teaching_hours_per_week" binding:"min=0,max=60"`
	LabSessionsPerWeek   int     `json:"lab_sessions_per_week" binding:"min=0,max=30"`
	AcademicYear         string  `json:"academic_year" binding:"required,min=4,max=9"`
}

// WorkloadInputs are the raw figures the burnout score is computed from.
type WorkloadInputs struct {
	TeachingHours   float64 `json:"teaching_hours"`
	LabSessions     int     `json:"lab_sessions"`
	MenteeCount     int     `json:"mentee_count"`
	MeetingsPerWeek int     `json:"meetings_per_week"`
}

// FacultyWorkload is the computed workload of one faculty member.
type FacultyWorkload struct {
	FacultyID       uuid.UUID      `json:"faculty_id"`
	FacultyName     string         `json:"faculty_name"`
	DepartmentID    *uuid.UUID     `json:"department_id,omitempty"`
	Inputs          WorkloadInputs `json:"inputs"`
	Score           float64        `json:"score"`
	Level           BurnoutLevel   `json:"level"`
	Recommendations []string       `json:"recommendations"`
	ComputedAt      time.Time      `json:"computed_at"`
}

// WorkloadReport aggregates workloads across a department or the college.
type WorkloadReport struct {
	DepartmentID *uuid.UUID           `json:"department_id,omitempty"`
	Faculty      []FacultyWorkload    `json:"faculty"`
	Distribution map[BurnoutLevel]int `json:"distribution"`
	AverageScore float64              `json:"average_score"`
	ComputedAt   time.Time            `json:"computed_at"`
}
