package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

// MaxMessageLength is the longest accepted message, in characters, after sanitising.
const MaxMessageLength = 4000

const (
	defaultMessagePage = 50
	maxMessagePage     = 100
	typingThrottle     = 3 * time.Second
)

// Group errors.
var (
	ErrNotGroupMember  = errors.New("not a member of this group")
	ErrNotGroupAdmin   = errors.New("group admin privileges required")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrNotMessageOwner = errors.New("message belongs to another user")
	ErrMessageDeleted  = errors.New("message was deleted")
	ErrInvalidReply    = errors.New("reply target is not a message of this group")
	ErrInvalidEmoji    = errors.New("reaction must be 1 to 16 characters")
)

// CleanMessage strips all markup from raw and enforces the length bounds.
// The result is plain text; clients escape it when rendering.
func CleanMessage(policy *bluemonday.Policy, raw string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(policy.Sanitize(raw)))
	if clean == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(clean) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return clean, nil
}

// GroupService handles groups, membership, messages and reactions.
type GroupService struct {
	groupRepo   *repository.GroupRepository
	messageRepo *repository.MessageRepository
	studentRepo *repository.StudentRepository
	userRepo    *repository.UserRepository
	events      *EventBus
	rdb         *redis.Client
	policy      *bluemonday.Policy
	log         zerolog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	groupRepo *repository.GroupRepository,
	messageRepo *repository.MessageRepository,
	studentRepo *repository.StudentRepository,
	userRepo *repository.UserRepository,
	events *EventBus,
	rdb *redis.Client,
	log zerolog.Logger,
) *GroupService {
	return &GroupService{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		studentRepo: studentRepo,
		userRepo:    userRepo,
		events:      events,
		rdb:         rdb,
		policy:      bluemonday.StrictPolicy(),
		log:         log.With().Str("component", "group_service").Logger(),
	}
}

// MemberRole returns the user's role in the group, or ErrNotGroupMember.
func (s *GroupService) MemberRole(ctx context.Context, groupID, userID uuid.UUID) (model.GroupRole, error) {
	role, err := s.groupRepo.GetMemberRole(ctx, groupID, userID)
	if repository.IsNotFound(err) {
		return "", ErrNotGroupMember
	}
	return role, err
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID, userID uuid.UUID) error {
	role, err := s.MemberRole(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if role != model.GroupRoleAdmin {
		return ErrNotGroupAdmin
	}
	return nil
}

// ─── Groups ─────────────────────────────────────────────────────────

// Create creates a group owned by creatorID. When a class is given, its
// students are enrolled alongside the explicit members.
func (s *GroupService) Create(ctx context.Context, creatorID uuid.UUID, req *model.CreateGroupRequest) (*model.Group, error) {
	g := &model.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		ClassID:     parseOptionalUUID(req.ClassID),
		CreatedBy:   creatorID,
	}

	members := make([]uuid.UUID, 0, len(req.MemberIDs))
	seen := map[uuid.UUID]struct{}{creatorID: {}}
	add := func(id uuid.UUID) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	for _, raw := range req.MemberIDs {
		if id, err := uuid.Parse(raw); err == nil {
			add(id)
		}
	}
	if g.ClassID != nil {
		roster, err := s.studentRepo.ListByClass(ctx, *g.ClassID)
		if err != nil {
			return nil, fmt.Errorf("load class roster: %w", err)
		}
		for _, st := range roster {
			add(st.UserID)
		}
	}

	if err := s.groupRepo.Create(ctx, g, members); err != nil {
		return nil, err
	}
	return g, nil
}

// ListMine returns the caller's groups.
func (s *GroupService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	return s.groupRepo.ListForUser(ctx, userID)
}

// Get returns a group visible to a member.
func (s *GroupService) Get(ctx context.Context, groupID, userID uuid.UUID) (*model.Group, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.groupRepo.GetByID(ctx, groupID, userID)
}

// Update renames a group. Group admins only.
func (s *GroupService) Update(ctx context.Context, groupID, userID uuid.UUID, req *model.UpdateGroupRequest) (*model.Group, error) {
	if err := s.requireAdmin(ctx, groupID, userID); err != nil {
		return nil, err
	}
	g := &model.Group{ID: groupID, Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if err := s.groupRepo.Update(ctx, g); err != nil {
		return nil, err
	}
	return s.groupRepo.GetByID(ctx, groupID, userID)
}

// Delete removes a group. Allowed for group admins and portal administrators.
func (s *GroupService) Delete(ctx context.Context, groupID, userID uuid.UUID, userRole model.Role) error {
	if userRole != model.RoleAdmin {
		if err := s.requireAdmin(ctx, groupID, userID); err != nil {
			return err
		}
	}
	if err := s.groupRepo.Delete(ctx, groupID); err != nil {
		return err
	}
	s.events.Publish(ctx, groupID, ws.EventGroupDeleted, userID, nil)
	return nil
}

// ─── Members ────────────────────────────────────────────────────────

// Members lists the group's members.
func (s *GroupService) Members(ctx context.Context, groupID, userID uuid.UUID) ([]model.GroupMember, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, groupID)
}

// AddMembers adds users to a group and returns how many were new.
func (s *GroupService) AddMembers(ctx context.Context, groupID, actorID uuid.UUID, rawIDs []string) (int, error) {
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	added, err := s.groupRepo.AddMembers(ctx, groupID, ids)
	if err != nil {
		return 0, err
	}
	if len(added) > 0 {
		s.events.Publish(ctx, groupID, ws.EventMemberChanged, actorID, ws.MemberChangeData{UserIDs: added, Change: ws.MemberAdded})
	}
	return len(added), nil
}

// RemoveMember removes targetID from the group. Members may remove themselves;
// removing someone else needs group admin rights.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, actorID, targetID uuid.UUID) error {
	change := ws.MemberLeft
	if actorID != targetID {
		if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
			return err
		}
		change = ws.MemberRemoved
	} else if _, err := s.MemberRole(ctx, groupID, actorID); err != nil {
		return err
	}

	deleted, err := s.groupRepo.RemoveMember(ctx, groupID, targetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotGroupMember
		}
		return err
	}
	if deleted {
		s.events.Publish(ctx, groupID, ws.EventGroupDeleted, actorID, nil)
		return nil
	}
	s.events.Publish(ctx, groupID, ws.EventMemberChanged, actorID,
		ws.MemberChangeData{UserIDs: []uuid.UUID{targetID}, Change: change})
	return nil
}

// SetMemberRole promotes or demotes a member. Group admins only.
func (s *GroupService) SetMemberRole(ctx context.Context, groupID, actorID, targetID uuid.UUID, role model.GroupRole) error {
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	if err := s.groupRepo.SetMemberRole(ctx, groupID, targetID, role); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotGroupMember
		}
		return err
	}
	s.events.Publish(ctx, groupID, ws.EventMemberChanged, actorID,
		ws.MemberChangeData{UserIDs: []uuid.UUID{targetID}, Change: ws.MemberRoleChanged, Role: string(role)})
	return nil
}

// ─── Messages ───────────────────────────────────────────────────────

// Messages returns a page of messages older than before, newest first.
func (s *GroupService) Messages(ctx context.Context, groupID, userID uuid.UUID, before time.Time, limit int) ([]model.Message, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}
	return s.messageRepo.List(ctx, groupID, before, limit)
}

// SendMessage posts a message. With async set the message is published at once
// and persisted by the message worker; otherwise it is written before publishing.
func (s *GroupService) SendMessage(ctx context.Context, groupID, senderID uuid.UUID, content, replyTo string, async bool) (*model.Message, error) {
	if _, err := s.MemberRole(ctx, groupID, senderID); err != nil {
		return nil, err
	}
	clean, err := CleanMessage(s.policy, content)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:        uuid.New(),
		GroupID:   groupID,
		SenderID:  senderID,
		Content:   clean,
		Reactions: []model.ReactionSummary{},
		CreatedAt: time.Now().UTC(),
	}

	if replyTo != "" {
		target, err := uuid.Parse(replyTo)
		if err != nil {
			return nil, ErrInvalidReply
		}
		parent, err := s.messageRepo.GetByID(ctx, target)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrInvalidReply
			}
			return nil, err
		}
		if parent.GroupID != groupID {
			return nil, ErrInvalidReply
		}
		msg.ReplyTo = &target
	}

	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		msg.SenderName = sender.Name
	}

	if async {
		if err := s.enqueue(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID.String()).Msg("Queue unavailable, persisting message inline")
			async = false
		}
	}
	if !async {
		if err := s.messageRepo.Create(ctx, msg); err != nil {
			return nil, err
		}
	}

	s.events.Publish(ctx, groupID, ws.EventMessage, senderID, msg)
	return msg, nil
}

func (s *GroupService) enqueue(ctx context.Context, msg *model.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistMessagesQueue, payload).Err()
}

// messageInGroup loads a live message of the group.
func (s *GroupService) messageInGroup(ctx context.Context, groupID, messageID uuid.UUID) (*model.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	if msg.DeletedAt != nil {
		return nil, ErrMessageDeleted
	}
	return msg, nil
}

// EditMessage replaces the content of the caller's own message.
func (s *GroupService) EditMessage(ctx context.Context, groupID, messageID, userID uuid.UUID, content string) (*model.Message, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	msg, err := s.messageInGroup(ctx, groupID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrNotMessageOwner
	}
	clean, err := CleanMessage(s.policy, content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.messageRepo.UpdateContent(ctx, messageID, clean, now); err != nil {
		return nil, err
	}
	msg.Content = clean
	msg.EditedAt = &now

	s.events.Publish(ctx, groupID, ws.EventMessageEdited, userID, msg)
	return msg, nil
}

// DeleteMessage soft-deletes a message. Senders delete their own; group
// admins may delete any message in the group.
func (s *GroupService) DeleteMessage(ctx context.Context, groupID, messageID, userID uuid.UUID) error {
	role, err := s.MemberRole(ctx, groupID, userID)
	if err != nil {
		return err
	}
	msg, err := s.messageInGroup(ctx, groupID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID && role != model.GroupRoleAdmin {
		return ErrNotMessageOwner
	}
	if err := s.messageRepo.SoftDelete(ctx, messageID, time.Now().UTC()); err != nil {
		return err
	}
	s.events.Publish(ctx, groupID, ws.EventMessageDeleted, userID, ws.MessageRefData{MessageID: messageID})
	return nil
}

// ToggleReaction adds or removes the caller's emoji on a message.
func (s *GroupService) ToggleReaction(ctx context.Context, groupID, messageID, userID uuid.UUID, emoji string) (*ws.ReactionData, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if _, err := s.messageInGroup(ctx, groupID, messageID); err != nil {
		return nil, err
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || utf8.RuneCountInString(emoji) > 16 {
		return nil, ErrInvalidEmoji
	}

	added, err := s.messageRepo.ToggleReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}
	data := &ws.ReactionData{MessageID: messageID, UserID: userID, Emoji: emoji, Added: added}
	s.events.Publish(ctx, groupID, ws.EventReaction, userID, data)
	return data, nil
}

// Typing broadcasts a typing indicator, at most once per throttle window per user.
func (s *GroupService) Typing(ctx context.Context, groupID, userID uuid.UUID, name string) {
	key := config.CacheKey.GroupTypingKey(groupID.String(), userID.String())
	first, err := s.rdb.SetNX(ctx, key, 1, typingThrottle).Result()
	if err != nil || !first {
		return
	}
	s.events.Publish(ctx, groupID, ws.EventTyping, userID, ws.TypingData{UserID: userID, Name: name})
}
