package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is the academic profile attached to a STUDENT user.
type Student struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	RollNumber    string     `json:"roll_number"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	ClassID       uuid.UUID  `json:"class_id"`
	ClassName     string     `json:"class_name,omitempty"`
	MentorID      *uuid.UUID `json:"mentor_id,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	BloodGroup    string     `json:"blood_group,omitempty"`
	GuardianPhone string     `json:"guardian_phone,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateStudentRequest is the payload for creating a student account and profile.
type CreateStudentRequest struct {
	RollNumber    string `json:"roll_number" binding:"required,min=2,max=30"`
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Password      string `json:"password" binding:"omitempty,min=8,max=128"`
	ClassID       string `json:"class_id" binding:"required,uuid"`
	MentorID      string `json:"mentor_id" binding:"omitempty,uuid"`
	DateOfBirth   string `json:"date_of_birth" binding:"omitempty,isodate"`
	BloodGroup    string `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	GuardianPhone string `json:"guardian_phone" binding:"omitempty,max=20"`
}

// UpdateStudentRequest is the payload for updating an existing student.
type UpdateStudentRequest struct {
	RollNumber    string `json:"roll_number" binding:"required,min=2,max=30"`
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Password      string `json:"password" binding:"omitempty,min=8,max=128"`
	ClassID       string `json:"class_id" binding:"required,uuid"`
	MentorID      string `json:"mentor_id" binding:"omitempty,uuid"`
	DateOfBirth   string `json:"date_of_birth" binding:"omitempty,isodate"`
	BloodGroup    string `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	GuardianPhone string `json:"guardian_phone" binding:"omitempty,max=20"`
}

// ImportRowResult reports what happened to one spreadsheet row.
type ImportRowResult struct {
	Row        int    `json:"row"`
	RollNumber string `json:"roll_number"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// ImportResult summarises a student spreadsheet import.
type ImportResult struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Rows    []ImportRowResult `json:"rows"`
}
