package model

import (
	"time"

	"github.com/google/uuid"
)

// GroupRole is a member's role inside a group.
type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "ADMIN"
	GroupRoleMember GroupRole = "MEMBER"
)

// Group is a messaging group.
type Group struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ClassID     *uuid.UUID `json:"class_id,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	MemberCount int        `json:"member_count"`
	MyRole      GroupRole  `json:"my_role,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GroupMember is a user's membership in a group.
type GroupMember struct {
	GroupID   uuid.UUID `json:"group_id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserRole  Role      `json:"user_role"`
	Role      GroupRole `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// CreateGroupRequest is the payload for creating a group.
type CreateGroupRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=100"`
	Description string   `json:"description" binding:"omitempty,max=500"`
	ClassID     string   `json:"class_id" binding:"omitempty,uuid"`
	MemberIDs   []string `json:"member_ids" binding:"omitempty,max=500,dive,uuid"`
}

// UpdateGroupRequest is the payload for renaming a group.
type UpdateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// AddMembersRequest adds users to a group.
type AddMembersRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1,max=500,dive,uuid"`
}

// MemberRoleRequest changes a member's role.
type MemberRoleRequest struct {
	Role GroupRole `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

// Message is a chat message in a group.
type Message struct {
	ID         uuid.UUID         `json:"id"`
	GroupID    uuid.UUID         `json:"group_id"`
	SenderID   uuid.UUID         `json:"sender_id"`
	SenderName string            `json:"sender_name,omitempty"`
	Content    string            `json:"content"`
	ReplyTo    *uuid.UUID        `json:"reply_to,omitempty"`
	Reactions  []ReactionSummary `json:"reactions"`
	CreatedAt  time.Time         `json:"created_at"`
	EditedAt   *time.Time        `json:"edited_at,omitempty"`
	DeletedAt  *time.Time        `json:"deleted_at,omitempty"`
}

// SendMessageRequest is the payload for posting a message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4000"`
	ReplyTo string `json:"reply_to" binding:"omitempty,uuid"`
}

// EditMessageRequest is the payload for editing one's own message.
type EditMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4000"`
}

// ReactionRequest toggles an emoji reaction.
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,min=1,max=16"`
}

// ReactionSummary counts one emoji on a message.
type ReactionSummary struct {
	Emoji   string      `json:"emoji"`
	Count   int         `json:"count"`
	UserIDs []uuid.UUID `json:"user_ids"`
}

// CallType is the media mode of a group call.
type CallType string

const (
	CallTypeVideo CallType = "VIDEO"
	CallTypeAudio CallType = "AUDIO"
)

// CallStatus is the lifecycle state of a group call.
type CallStatus string

const (
	CallStatusActive CallStatus = "ACTIVE"
	CallStatusEnded  CallStatus = "ENDED"
)

// GroupCall is an ad-hoc Jitsi meeting attached to a group.
type GroupCall struct {
	ID         uuid.UUID  `json:"id"`
	GroupID    uuid.UUID  `json:"group_id"`
	StartedBy  uuid.UUID  `json:"started_by"`
	CallType   CallType   `json:"call_type"`
	RoomName   string     `json:"room_name"`
	MeetingURL string     `json:"meeting_url"`
	Status     CallStatus `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// StartCallRequest is the payload for starting a call.
type StartCallRequest struct {
	Type CallType `json:"type" binding:"required,oneof=VIDEO AUDIO"`
}
