package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

// Meeting errors.
var (
	ErrNotMeetingOrganizer = errors.New("only the organizer can change this meeting")
	ErrInvalidParticipant  = errors.New("participants must be faculty users")
)

const defaultMeetingWindow = 30 * 24 * time.Hour

type workloadInvalidator interface {
	Invalidate(ctx context.Context)
}

// MeetingService schedules faculty meetings.
type MeetingService struct {
	meetingRepo *repository.MeetingRepository
	users       roleLookup
	workload    workloadInvalidator
	now         func() time.Time
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(meetingRepo *repository.MeetingRepository, users roleLookup, workload workloadInvalidator) *MeetingService {
	return &MeetingService{meetingRepo: meetingRepo, users: users, workload: workload, now: time.Now}
}

// Create schedules a meeting organised by organizerID.
func (s *MeetingService) Create(ctx context.Context, organizerID uuid.UUID, req *model.CreateMeetingRequest) (*model.Meeting, error) {
	participants := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	seen := map[uuid.UUID]struct{}{organizerID: {}}
	for _, raw := range req.ParticipantIDs {
		id, err := resolveFaculty(ctx, s.users, raw)
		if err != nil {
			if errors.Is(err, ErrInvalidFaculty) {
				return nil, ErrInvalidParticipant
			}
			return nil, err
		}
		if id == nil {
			continue
		}
		if _, dup := seen[*id]; dup {
			continue
		}
		seen[*id] = struct{}{}
		participants = append(participants, *id)
	}

	m := &model.Meeting{
		Title:           strings.TrimSpace(req.Title),
		OrganizerID:     organizerID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Location:        strings.TrimSpace(req.Location),
		ParticipantIDs:  participants,
	}
	if err := s.meetingRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.workload.Invalidate(ctx)
	return s.meetingRepo.GetByID(ctx, m.ID)
}

// ListMine returns meetings the user organises or attends within [from, to).
// Zero bounds default to today and thirty days after from.
func (s *MeetingService) ListMine(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Meeting, error) {
	if from.IsZero() {
		from = startOfDay(s.now())
	}
	if to.IsZero() {
		to = from.Add(defaultMeetingWindow)
	}
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	return s.meetingRepo.ListForUser(ctx, userID, from, to)
}

// Get returns a meeting visible to its organizer, its participants and administrators.
func (s *MeetingService) Get(ctx context.Context, id, userID uuid.UUID, role model.Role) (*model.Meeting, error) {
	m, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == model.RoleAdmin || m.OrganizerID == userID {
		return m, nil
	}
	for _, p := range m.ParticipantIDs {
		if p == userID {
			return m, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Delete cancels a meeting. Organizer or administrators only.
func (s *MeetingService) Delete(ctx context.Context, id, userID uuid.UUID, role model.Role) error {
	m, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin && m.OrganizerID != userID {
		return ErrNotMeetingOrganizer
	}
	if err := s.meetingRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.workload.Invalidate(ctx)
	return nil
}
