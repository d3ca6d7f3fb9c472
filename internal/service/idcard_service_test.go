package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

const testQRSecret = "qr-secret-for-tests"

func testCard(issued time.Time) *model.IDCard {
	return &model.IDCard{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		CardNumber: NewCardNumber(issued),
		IssuedAt:   issued,
		ExpiresAt:  issued.AddDate(1, 0, 0),
	}
}

func TestCardTokenRoundTrip(t *testing.T) {
	issued := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	card := testCard(issued)

	token, err := SignCardToken(testQRSecret, card)
	require.NoError(t, err)

	claims, reason := ParseCardToken(testQRSecret, "  "+token+"\n", issued.AddDate(0, 6, 0))
	require.Equal(t, model.VerifyOK, reason)
	assert.Equal(t, card.ID.String(), claims.ID)
	assert.Equal(t, card.UserID.String(), claims.Subject)
	assert.Equal(t, card.CardNumber, claims.CardNumber)
}

func TestParseCardTokenFailures(t *testing.T) {
	issued := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	card := testCard(issued)
	token, err := SignCardToken(testQRSecret, card)
	require.NoError(t, err)

	t.Run("expired keeps claims", func(t *testing.T) {
		claims, reason := ParseCardToken(testQRSecret, token, issued.AddDate(2, 0, 0))
		assert.Equal(t, model.VerifyExpired, reason)
		require.NotNil(t, claims)
		assert.Equal(t, card.ID.String(), claims.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims, reason := ParseCardToken("another-secret", token, issued)
		assert.Equal(t, model.VerifyInvalidSignature, reason)
		assert.Nil(t, claims)
	})

	t.Run("tampered", func(t *testing.T) {
		_, reason := ParseCardToken(testQRSecret, token[:len(token)-2]+"xx", issued)
		assert.Equal(t, model.VerifyInvalidSignature, reason)
	})

	t.Run("garbage", func(t *testing.T) {
		_, reason := ParseCardToken(testQRSecret, "hello", issued)
		assert.Equal(t, model.VerifyInvalidSignature, reason)
	})
}

func TestNewCardNumber(t *testing.T) {
	issued := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	a := NewCardNumber(issued)
	b := NewCardNumber(issued)

	assert.Regexp(t, regexp.MustCompile(`^VC-2026-[0-9A-F]{8}$`), a)
	assert.NotEqual(t, a, b)
}

// memoryCards keeps cards in issue order per user; the last one is current.
type memoryCards struct {
	cards   map[uuid.UUID]*model.IDCard
	byUser  map[uuid.UUID][]uuid.UUID
	holders map[uuid.UUID]model.IDCardHolder
}

func newMemoryCards() *memoryCards {
	return &memoryCards{
		cards:   map[uuid.UUID]*model.IDCard{},
		byUser:  map[uuid.UUID][]uuid.UUID{},
		holders: map[uuid.UUID]model.IDCardHolder{},
	}
}

func (m *memoryCards) Create(_ context.Context, c *model.IDCard) error {
	c.ID = uuid.New()
	stored := *c
	m.cards[c.ID] = &stored
	m.byUser[c.UserID] = append(m.byUser[c.UserID], c.ID)
	return nil
}

func (m *memoryCards) GetByID(_ context.Context, id uuid.UUID) (*model.IDCard, error) {
	c, ok := m.cards[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *memoryCards) GetCurrent(ctx context.Context, userID uuid.UUID) (*model.IDCard, error) {
	ids := m.byUser[userID]
	if len(ids) == 0 {
		return nil, repository.ErrNotFound
	}
	return m.GetByID(ctx, ids[len(ids)-1])
}

func (m *memoryCards) RevokeCurrent(_ context.Context, userID uuid.UUID, at time.Time) error {
	ids := m.byUser[userID]
	if len(ids) == 0 || m.cards[ids[len(ids)-1]].RevokedAt != nil {
		return repository.ErrNotFound
	}
	m.cards[ids[len(ids)-1]].RevokedAt = &at
	return nil
}

func (m *memoryCards) GetHolder(_ context.Context, userID uuid.UUID) (*model.IDCardHolder, error) {
	h, ok := m.holders[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

type cardFixture struct {
	svc   *IDCardService
	store *memoryCards
	now   time.Time
}

func newCardFixture() *cardFixture {
	f := &cardFixture{store: newMemoryCards(), now: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)}
	cfg := &config.Config{QRSecret: testQRSecret, IDCardValidity: 365 * 24 * time.Hour}
	f.svc = NewIDCardService(cfg, f.store)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *cardFixture) addStudent(name string) uuid.UUID {
	id := uuid.New()
	f.store.holders[id] = model.IDCardHolder{
		UserID:        id,
		Name:          name,
		Email:         "student@example.com",
		Role:          model.RoleStudent,
		RollNumber:    "CSE001",
		GuardianPhone: "9876543210",
	}
	return id
}

func TestVerifyCard(t *testing.T) {
	ctx := context.Background()
	f := newCardFixture()
	user := f.addStudent("Meera Iyer")

	first, err := f.svc.Issue(ctx, user)
	require.NoError(t, err)

	t.Run("current card is valid and hides contact details", func(t *testing.T) {
		res, err := f.svc.Verify(ctx, first.QRPayload)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, model.VerifyOK, res.Reason)
		assert.Equal(t, first.Card.CardNumber, res.CardNumber)
		require.NotNil(t, res.Holder)
		assert.Equal(t, "Meera Iyer", res.Holder.Name)
		assert.Empty(t, res.Holder.Email)
		assert.Empty(t, res.Holder.GuardianPhone)
	})

	second, err := f.svc.Issue(ctx, user)
	require.NoError(t, err)
	require.NotEqual(t, first.Card.ID, second.Card.ID)

	t.Run("re-issue supersedes the old card", func(t *testing.T) {
		res, err := f.svc.Verify(ctx, first.QRPayload)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, model.VerifySuperseded, res.Reason)
		assert.Nil(t, res.Holder)

		res, err = f.svc.Verify(ctx, second.QRPayload)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, f.svc.Revoke(ctx, user))

		res, err := f.svc.Verify(ctx, second.QRPayload)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, model.VerifyRevoked, res.Reason)

		_, err = f.svc.ForUser(ctx, user)
		assert.ErrorIs(t, err, ErrCardNotIssued)
		assert.ErrorIs(t, f.svc.Revoke(ctx, user), ErrCardNotIssued)
	})

	t.Run("unknown card", func(t *testing.T) {
		token, err := SignCardToken(testQRSecret, testCard(f.now))
		require.NoError(t, err)

		res, err := f.svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, model.VerifyNotFound, res.Reason)
	})

	t.Run("foreign signature", func(t *testing.T) {
		token, err := SignCardToken("someone-else", testCard(f.now))
		require.NoError(t, err)

		res, err := f.svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, model.VerifyInvalidSignature, res.Reason)
	})
}

func TestVerifyExpiredCard(t *testing.T) {
	ctx := context.Background()
	f := newCardFixture()
	user := f.addStudent("Kabir Singh")

	view, err := f.svc.Issue(ctx, user)
	require.NoError(t, err)

	f.now = f.now.Add(366 * 24 * time.Hour)
	res, err := f.svc.Verify(ctx, view.QRPayload)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, model.VerifyExpired, res.Reason)
	assert.Equal(t, view.Card.CardNumber, res.CardNumber)
}
