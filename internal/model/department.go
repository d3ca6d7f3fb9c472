package model

import (
	"time"

	"github.com/google/uuid"
)

// Department is an academic department (e.g. CSE, ECE).
type Department struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	HodID     *uuid.UUID `json:"hod_id,omitempty"`
	HodName   string     `json:"hod_name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DepartmentRequest is the payload for creating or updating a department.
type DepartmentRequest struct {
	Code  string `json:"code" binding:"required,min=2,max=10,alphanum"`
	Name  string `json:"name" binding:"required,min=2,max=100"`
	HodID string `json:"hod_id" binding:"omitempty"`
}
