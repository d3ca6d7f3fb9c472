package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

// ErrCardNotIssued is returned when the user holds no valid card.
var ErrCardNotIssued = errors.New("no active id card")

const (
	qrImageSize     = 320
	cardNumberTries = 3
)

// CardClaims is the QR payload of an ID card: jti is the card id and sub the holder.
type CardClaims struct {
	jwt.RegisteredClaims
	CardNumber string `json:"cn"`
}

// SignCardToken encodes a card as a compact HS256 token.
func SignCardToken(secret string, card *model.IDCard) (string, error) {
	claims := CardClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        card.ID.String(),
			Subject:   card.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(card.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(card.ExpiresAt),
		},
		CardNumber: card.CardNumber,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseCardToken verifies a QR payload. The reason is VerifyOK when claims are usable.
func ParseCardToken(secret, payload string, now time.Time) (*CardClaims, model.VerifyReason) {
	claims := &CardClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(payload), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims, model.VerifyExpired
		}
		return nil, model.VerifyInvalidSignature
	}
	return claims, model.VerifyOK
}

// NewCardNumber formats a card number from the issue year and a random suffix.
func NewCardNumber(issuedAt time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("VC-%d-%s", issuedAt.Year(), suffix)
}

type cardStore interface {
	Create(ctx context.Context, c *model.IDCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.IDCard, error)
	GetCurrent(ctx context.Context, userID uuid.UUID) (*model.IDCard, error)
	RevokeCurrent(ctx context.Context, userID uuid.UUID, at time.Time) error
	GetHolder(ctx context.Context, userID uuid.UUID) (*model.IDCardHolder, error)
}

// IDCardService issues, renders and verifies digital ID cards.
type IDCardService struct {
	cfg      *config.Config
	cardRepo cardStore
	now      func() time.Time
}

// NewIDCardService creates a new IDCardService.
func NewIDCardService(cfg *config.Config, cardRepo cardStore) *IDCardService {
	return &IDCardService{cfg: cfg, cardRepo: cardRepo, now: time.Now}
}

// Issue creates a new card for the user. Any earlier card becomes superseded.
func (s *IDCardService) Issue(ctx context.Context, userID uuid.UUID) (*model.IDCardView, error) {
	holder, err := s.cardRepo.GetHolder(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	card := &model.IDCard{
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.IDCardValidity),
	}
	for attempt := 0; ; attempt++ {
		card.CardNumber = NewCardNumber(now)
		err = s.cardRepo.Create(ctx, card)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == cardNumberTries-1 {
			return nil, fmt.Errorf("create id card: %w", err)
		}
	}

	payload, err := SignCardToken(s.cfg.QRSecret, card)
	if err != nil {
		return nil, fmt.Errorf("sign qr payload: %w", err)
	}
	return &model.IDCardView{Card: *card, Holder: *holder, QRPayload: payload}, nil
}

// Revoke revokes the user's current card.
func (s *IDCardService) Revoke(ctx context.Context, userID uuid.UUID) error {
	err := s.cardRepo.RevokeCurrent(ctx, userID, s.now().UTC())
	if repository.IsNotFound(err) {
		return ErrCardNotIssued
	}
	return err
}

// ForUser returns the user's current card with a fresh QR payload.
func (s *IDCardService) ForUser(ctx context.Context, userID uuid.UUID) (*model.IDCardView, error) {
	card, err := s.cardRepo.GetCurrent(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCardNotIssued
		}
		return nil, err
	}
	if card.RevokedAt != nil {
		return nil, ErrCardNotIssued
	}

	holder, err := s.cardRepo.GetHolder(ctx, userID)
	if err != nil {
		return nil, err
	}
	payload, err := SignCardToken(s.cfg.QRSecret, card)
	if err != nil {
		return nil, fmt.Errorf("sign qr payload: %w", err)
	}
	return &model.IDCardView{Card: *card, Holder: *holder, QRPayload: payload}, nil
}

// QRCode renders the user's current card payload as a PNG.
func (s *IDCardService) QRCode(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	view, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(view.QRPayload, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}

// Verify checks a scanned payload against the signature and the card's current state.
func (s *IDCardService) Verify(ctx context.Context, payload string) (*model.VerifyCardResult, error) {
	now := s.now()
	claims, reason := ParseCardToken(s.cfg.QRSecret, payload, now)
	if reason == model.VerifyInvalidSignature {
		return &model.VerifyCardResult{Reason: reason}, nil
	}

	cardID, err := uuid.Parse(claims.ID)
	if err != nil {
		return &model.VerifyCardResult{Reason: model.VerifyInvalidSignature}, nil
	}
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &model.VerifyCardResult{Reason: model.VerifyNotFound}, nil
		}
		return nil, err
	}

	result := &model.VerifyCardResult{CardNumber: card.CardNumber, ExpiresAt: &card.ExpiresAt}
	switch {
	case card.RevokedAt != nil:
		result.Reason = model.VerifyRevoked
		return result, nil
	case reason == model.VerifyExpired || !now.Before(card.ExpiresAt):
		result.Reason = model.VerifyExpired
		return result, nil
	}

	current, err := s.cardRepo.GetCurrent(ctx, card.UserID)
	if err != nil {
		return nil, err
	}
	if current.ID != card.ID {
		result.Reason = model.VerifySuperseded
		return result, nil
	}

	holder, err := s.cardRepo.GetHolder(ctx, card.UserID)
	if err != nil {
		return nil, err
	}
	holder.Email = ""
	holder.GuardianPhone = ""
	result.Valid = true
	result.Reason = model.VerifyOK
	result.Holder = holder
	return result, nil
}
