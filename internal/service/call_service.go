package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

// ErrCallNotActive is returned when ending a call that is over or belongs elsewhere.
var ErrCallNotActive = errors.New("call is not active")

const (
	roomPrefix      = "VConnect"
	maxRoomSlug     = 40
	audioOnlyConfig = "#config.startWithVideoMuted=true&config.startAudioOnly=true"
	callHistorySize = 20
)

// RoomSlug reduces a group name to letters, digits and single dashes.
func RoomSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxRoomSlug {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "Group"
	}
	return slug
}

// RoomName builds a unique Jitsi room name for a group call.
func RoomName(groupName, suffix string) string {
	return roomPrefix + "-" + RoomSlug(groupName) + "-" + suffix
}

// MeetingURL returns the Jitsi URL for a room; audio calls start with video muted.
func MeetingURL(baseURL, room string, callType model.CallType) string {
	url := strings.TrimRight(baseURL, "/") + "/" + room
	if callType == model.CallTypeAudio {
		url += audioOnlyConfig
	}
	return url
}

func randomRoomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CallService manages ad-hoc group calls.
type CallService struct {
	cfg       *config.Config
	callRepo  *repository.CallRepository
	groupRepo *repository.GroupRepository
	groups    *GroupService
	events    *EventBus
}

// NewCallService creates a new CallService.
func NewCallService(cfg *config.Config, callRepo *repository.CallRepository, groupRepo *repository.GroupRepository, groups *GroupService, events *EventBus) *CallService {
	return &CallService{cfg: cfg, callRepo: callRepo, groupRepo: groupRepo, groups: groups, events: events}
}

// Start opens a call for the group, or returns the one already running.
// created reports whether a new call was opened.
func (s *CallService) Start(ctx context.Context, groupID, userID uuid.UUID, callType model.CallType) (call *model.GroupCall, created bool, err error) {
	if _, err := s.groups.MemberRole(ctx, groupID, userID); err != nil {
		return nil, false, err
	}

	active, err := s.callRepo.GetActive(ctx, groupID)
	if err == nil {
		return active, false, nil
	}
	if !repository.IsNotFound(err) {
		return nil, false, err
	}

	group, err := s.groupRepo.GetByID(ctx, groupID, userID)
	if err != nil {
		return nil, false, err
	}

	room := RoomName(group.Name, randomRoomSuffix())
	call = &model.GroupCall{
		GroupID:    groupID,
		StartedBy:  userID,
		CallType:   callType,
		RoomName:   room,
		MeetingURL: MeetingURL(s.cfg.JitsiBaseURL, room, callType),
	}
	if err := s.callRepo.Create(ctx, call); err != nil {
		// Lost the race against another member starting a call.
		if errors.Is(err, repository.ErrDuplicate) {
			active, getErr := s.callRepo.GetActive(ctx, groupID)
			if getErr != nil {
				return nil, false, getErr
			}
			return active, false, nil
		}
		return nil, false, err
	}

	s.events.Publish(ctx, groupID, ws.EventCallStarted, userID, call)
	return call, true, nil
}

// End closes an active call. Only its starter or a group admin may end it.
func (s *CallService) End(ctx context.Context, groupID, callID, userID uuid.UUID) (*model.GroupCall, error) {
	role, err := s.groups.MemberRole(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.GroupID != groupID || call.Status != model.CallStatusActive {
		return nil, ErrCallNotActive
	}
	if call.StartedBy != userID && role != model.GroupRoleAdmin {
		return nil, ErrNotGroupAdmin
	}

	now := time.Now().UTC()
	if err := s.callRepo.End(ctx, callID, now); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCallNotActive
		}
		return nil, err
	}
	call.Status = model.CallStatusEnded
	call.EndedAt = &now

	s.events.Publish(ctx, groupID, ws.EventCallEnded, userID, call)
	return call, nil
}

// Active returns the group's running call or a not-found error.
func (s *CallService) Active(ctx context.Context, groupID, userID uuid.UUID) (*model.GroupCall, error) {
	if _, err := s.groups.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.callRepo.GetActive(ctx, groupID)
}

// History lists the group's recent calls, newest first.
func (s *CallService) History(ctx context.Context, groupID, userID uuid.UUID) ([]model.GroupCall, error) {
	if _, err := s.groups.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.callRepo.ListByGroup(ctx, groupID, callHistorySize)
}
