package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

// GroupSnapshot is the live state sent to a client when it opens a group stream.
type GroupSnapshot struct {
	Online     []uuid.UUID      `json:"online"`
	ActiveCall *model.GroupCall `json:"active_call,omitempty"`
}

// PresenceService tracks who is connected to group streams.
type PresenceService struct {
	presenceRepo *repository.PresenceRepository
	callRepo     *repository.CallRepository
	events       *EventBus
	log          zerolog.Logger
}

// NewPresenceService creates a new PresenceService.
func NewPresenceService(presenceRepo *repository.PresenceRepository, callRepo *repository.CallRepository, events *EventBus, log zerolog.Logger) *PresenceService {
	return &PresenceService{
		presenceRepo: presenceRepo,
		callRepo:     callRepo,
		events:       events,
		log:          log.With().Str("component", "presence").Logger(),
	}
}

// Connect registers an open stream and announces the user if they just came online.
func (s *PresenceService) Connect(ctx context.Context, groupID, userID uuid.UUID) {
	online, err := s.presenceRepo.Join(ctx, groupID, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID.String()).Msg("Failed to record presence")
		return
	}
	if online {
		s.events.Publish(ctx, groupID, ws.EventPresence, userID, ws.PresenceData{UserID: userID, Online: true})
	}
}

// Disconnect drops an open stream and announces the user if it was their last.
func (s *PresenceService) Disconnect(ctx context.Context, groupID, userID uuid.UUID) {
	offline, err := s.presenceRepo.Leave(ctx, groupID, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID.String()).Msg("Failed to clear presence")
		return
	}
	if offline {
		s.events.Publish(ctx, groupID, ws.EventPresence, userID, ws.PresenceData{UserID: userID, Online: false})
	}
}

// Snapshot returns online members and the active call, fetched in parallel.
func (s *PresenceService) Snapshot(ctx context.Context, groupID uuid.UUID) (*GroupSnapshot, error) {
	var (
		online    []uuid.UUID
		call      *model.GroupCall
		onlineErr error
		callErr   error
		wg        sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		online, onlineErr = s.presenceRepo.Online(ctx, groupID)
	}()
	go func() {
		defer wg.Done()
		call, callErr = s.callRepo.GetActive(ctx, groupID)
	}()
	wg.Wait()

	// Presence is critical; the active call is best-effort.
	if onlineErr != nil {
		return nil, onlineErr
	}
	snapshot := &GroupSnapshot{Online: online}
	if callErr == nil {
		snapshot.ActiveCall = call
	} else if !repository.IsNotFound(callErr) {
		s.log.Warn().Err(callErr).Str("group_id", groupID.String()).Msg("Failed to load active call")
	}
	return snapshot, nil
}
