package model

import (
	"time"

	"github.com/google/uuid"
)

// User is any portal account: admin, faculty, librarian or student.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Designation  string     `json:"designation,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// ChangePasswordRequest is the payload for changing one's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,min=6,max=128"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128,nefield=CurrentPassword"`
}

// CreateUserRequest is the payload for creating a staff account.
type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email,max=255"`
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Password     string `json:"password" binding:"required,min=8,max=128"`
	Role         Role   `json:"role" binding:"required,oneof=ADMIN FACULTY LIBRARIAN"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
	Designation  string `json:"designation" binding:"omitempty,max=100"`
	Phone        string `json:"phone" binding:"omitempty,max=20"`
}

// UpdateUserRequest is the payload for updating a staff account.
type UpdateUserRequest struct {
	Email        string `json:"email" binding:"required,email,max=255"`
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Password     string `json:"password" binding:"omitempty,min=8,max=128"`
	Role         Role   `json:"role" binding:"required,oneof=ADMIN FACULTY LIBRARIAN"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
	Designation  string `json:"designation" binding:"omitempty,max=100"`
	Phone        string `json:"phone" binding:"omitempty,max=20"`
}
