package model

import (
	"time"

	"github.com/google/uuid"
)

// Class represents one section of a year in a department.
type Class struct {
	ID              uuid.UUID  `json:"id"`
	DepartmentID    uuid.UUID  `json:"department_id"`
	DepartmentCode  string     `json:"department_code,omitempty"`
	Name            string     `json:"name"`
	Year            int        `json:"year"`
	Section         string     `json:"section"`
	Semester        int        `json:"semester"`
	CoordinatorID   *uuid.UUID `json:"coordinator_id,omitempty"`
	CoordinatorName string     `json:"coordinator_name,omitempty"`
	StudentCount    int        `json:"student_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ClassRequest is the payload for creating or updating a class.
// CoordinatorID is validated as a faculty UUID by the service.
type ClassRequest struct {
	DepartmentID  string `json:"department_id" binding:"required,uuid"`
	Name          string `json:"name" binding:"required,min=1,max=100"`
	Year          int    `json:"year" binding:"required,min=1,max=6"`
	Section       string `json:"section" binding:"required,min=1,max=5"`
	Semester      int    `json:"semester" binding:"required,min=1,max=12"`
	CoordinatorID string `json:"coordinator_id" binding:"omitempty"`
}
