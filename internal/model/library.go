package model

import (
	"time"

	"github.com/google/uuid"
)

// IssueStatus tracks a book issue through the library workflow.
type IssueStatus string

const (
	IssueStatusIssued   IssueStatus = "ISSUED"
	IssueStatusReturned IssueStatus = "RETURNED"
)

// Book is a catalogue entry with copy accounting.
type Book struct {
	ID              uuid.UUID `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookRequest is the payload for creating or updating a book.
type BookRequest struct {
	ISBN        string `json:"isbn" binding:"required,min=10,max=17"`
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Author      string `json:"author" binding:"required,min=1,max=255"`
	Category    string `json:"category" binding:"omitempty,max=100"`
	TotalCopies int    `json:"total_copies" binding:"required,min=1,max=10000"`
}

// BookIssue is a loan of one copy to one student.
type BookIssue struct {
	ID          uuid.UUID   `json:"id"`
	BookID      uuid.UUID   `json:"book_id"`
	BookTitle   string      `json:"book_title,omitempty"`
	StudentID   uuid.UUID   `json:"student_id"`
	StudentName string      `json:"student_name,omitempty"`
	RollNumber  string      `json:"roll_number,omitempty"`
	IssuedBy    *uuid.UUID  `json:"issued_by,omitempty"`
	IssuedAt    time.Time   `json:"issued_at"`
	DueDate     time.Time   `json:"due_date"`
	ReturnedAt  *time.Time  `json:"returned_at,omitempty"`
	FineAmount  float64     `json:"fine_amount"`
	FinePaid    bool        `json:"fine_paid"`
	Status      IssueStatus `json:"status"`
	OverdueDays int         `json:"overdue_days"`
}

// IssueBookRequest is the payload for issuing a book.
type IssueBookRequest struct {
	BookID    string `json:"book_id" binding:"required,uuid"`
	StudentID string `json:"student_id" binding:"required,uuid"`
	DueDate   string `json:"due_date" binding:"omitempty,isodate"`
}

// IssueQuery filters the issue listing.
type IssueQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=ISSUED RETURNED OVERDUE"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// PendingFine is an unpaid fine, either settled on return or still accruing.
type PendingFine struct {
	IssueID     uuid.UUID `json:"issue_id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	RollNumber  string    `json:"roll_number"`
	BookTitle   string    `json:"book_title"`
	DueDate     time.Time `json:"due_date"`
	OverdueDays int       `json:"overdue_days"`
	Amount      float64   `json:"amount"`
	Accruing    bool      `json:"accruing"`
}
