package websocket

import (
	"time"

	"github.com/google/uuid"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSend   Action = "send"
	ActionTyping Action = "typing"
	ActionReact  Action = "react"
	ActionPing   Action = "ping"
)

// RequestPayload carries every client action; unused fields stay empty.
type RequestPayload struct {
	Action    Action `json:"action"`
	Content   string `json:"content,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	ClientRef string `json:"client_ref,omitempty"` // echoed in the ack so clients can match optimistic sends
	MessageID string `json:"message_id,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventMessage        Event = "message"
	EventMessageEdited  Event = "message_edited"
	EventMessageDeleted Event = "message_deleted"
	EventReaction       Event = "reaction"
	EventTyping         Event = "typing"
	EventCallStarted    Event = "call_started"
	EventCallEnded      Event = "call_ended"
	EventMemberChanged  Event = "member_changed"
	EventGroupDeleted   Event = "group_deleted"
	EventPresence       Event = "presence"
	EventAck            Event = "ack"
	EventError          Event = "error"
	EventPong           Event = "pong"
)

// GroupEvent is published on a group's Redis channel and forwarded verbatim
// to every connected member.
type GroupEvent struct {
	Event   Event       `json:"event"`
	GroupID uuid.UUID   `json:"group_id"`
	ActorID uuid.UUID   `json:"actor_id"`
	Data    interface{} `json:"data,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// TypingData is the payload of a typing event.
type TypingData struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// ReactionData is the payload of a reaction event.
type ReactionData struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	Emoji     string    `json:"emoji"`
	Added     bool      `json:"added"`
}

// MessageRefData identifies a message for delete events.
type MessageRefData struct {
	MessageID uuid.UUID `json:"message_id"`
}

// MemberChange names the kind of membership change.
type MemberChange string

const (
	MemberAdded       MemberChange = "added"
	MemberRemoved     MemberChange = "removed"
	MemberLeft        MemberChange = "left"
	MemberRoleChanged MemberChange = "role_changed"
)

// MemberChangeData describes a membership change.
type MemberChangeData struct {
	UserIDs []uuid.UUID  `json:"user_ids"`
	Change  MemberChange `json:"change"`
	Role    string       `json:"role,omitempty"`
}

// Ends reports whether the change takes userID out of the group.
func (d *MemberChangeData) Ends(userID uuid.UUID) bool {
	if d.Change != MemberRemoved && d.Change != MemberLeft {
		return false
	}
	for _, id := range d.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// PresenceData reports a user coming online or going offline.
type PresenceData struct {
	UserID uuid.UUID `json:"user_id"`
	Online bool      `json:"online"`
}

type AckResponse struct {
	Event     Event       `json:"event"`
	ClientRef string      `json:"client_ref,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
