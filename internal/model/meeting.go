package model

import (
	"time"

	"github.com/google/uuid"
)

// Meeting is a scheduled faculty meeting.
type Meeting struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	OrganizerID     uuid.UUID   `json:"organizer_id"`
	OrganizerName   string      `json:"organizer_name,omitempty"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Location        string      `json:"location,omitempty"`
	ParticipantIDs  []uuid.UUID `json:"participant_ids"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CreateMeetingRequest is the payload for scheduling a meeting.
type CreateMeetingRequest struct {
	Title           string    `json:"title" binding:"required,min=2,max=200"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=5,max=480"`
	Location        string    `json:"location" binding:"omitempty,max=200"`
	ParticipantIDs  []string  `json:"participant_ids" binding:"omitempty,max=200,dive,uuid"`
}
