package model

import (
	"time"

	"github.com/google/uuid"
)

// IDCard is a digital identity card issued to a user.
type IDCard struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	CardNumber string     `json:"card_number"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IDCardHolder is the printable face of the card.
type IDCardHolder struct {
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	Designation   string    `json:"designation,omitempty"`
	Department    string    `json:"department,omitempty"`
	RollNumber    string    `json:"roll_number,omitempty"`
	ClassName     string    `json:"class_name,omitempty"`
	BloodGroup    string    `json:"blood_group,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
}

// IDCardView is returned to the card holder.
type IDCardView struct {
	Card      IDCard       `json:"card"`
	Holder    IDCardHolder `json:"holder"`
	QRPayload string       `json:"qr_payload"`
}

// VerifyReason explains a verification outcome.
type VerifyReason string

const (
	VerifyOK               VerifyReason = "OK"
	VerifyInvalidSignature VerifyReason = "INVALID_SIGNATURE"
	VerifyExpired          VerifyReason = "EXPIRED"
	VerifyRevoked          VerifyReason = "REVOKED"
	VerifyNotFound         VerifyReason = "NOT_FOUND"
	VerifySuperseded       VerifyReason = "SUPERSEDED"
)

// VerifyCardRequest carries a scanned QR payload.
type VerifyCardRequest struct {
	Payload string `json:"payload" binding:"required,min=10,max=2048"`
}

// VerifyCardResult is the outcome of a QR verification.
type VerifyCardResult struct {
	Valid      bool          `json:"valid"`
	Reason     VerifyReason  `json:"reason"`
	CardNumber string        `json:"card_number,omitempty"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	Holder     *IDCardHolder `json:"holder,omitempty"`
}
