package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

type SettingService struct {
	settingRepo *repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo *repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}
	return toSettingsMap(settingsList), nil
}

// GetPublicSettings returns only the keys safe to show before login.
func (s *SettingService) GetPublicSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetMany(ctx, model.PublicSettingKeys)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get public settings")
		return nil, err
	}
	return toSettingsMap(settingsList), nil
}

func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	trimmed := make(map[string]string, len(settingsMap))
	for key, value := range settingsMap {
		trimmed[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := s.settingRepo.UpsertMany(ctx, trimmed); err != nil {
		s.log.Error().Err(err).Int("count", len(trimmed)).Msg("failed to update settings")
		return err
	}
	return nil
}

func (s *SettingService) GetSettingByKey(ctx context.Context, key string) (string, error) {
	setting, err := s.settingRepo.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Float reads a numeric setting, falling back when it is missing or malformed.
func (s *SettingService) Float(ctx context.Context, key string, fallback float64) float64 {
	raw, err := s.GetSettingByKey(ctx, key)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.log.Warn().Err(err).Str("key", key).Msg("setting lookup failed, using default")
		}
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		s.log.Warn().Str("key", key).Str("value", raw).Msg("malformed numeric setting, using default")
		return fallback
	}
	return v
}

// Int reads an integer setting, falling back when it is missing or malformed.
func (s *SettingService) Int(ctx context.Context, key string, fallback int) int {
	v := s.Float(ctx, key, float64(fallback))
	if v != float64(int(v)) {
		return fallback
	}
	return int(v)
}

func toSettingsMap(list []model.AppSetting) map[string]string {
	m := make(map[string]string, len(list))
	for _, setting := range list {
		m[setting.Key] = setting.Value
	}
	return m
}
