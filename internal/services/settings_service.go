package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/llm"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
)

// SettingModelKey is the settings row holding the remote model credential.
const SettingModelKey = "model_api_key"

// KeyStatus describes the configured credential without revealing it.
type KeyStatus struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked,omitempty"`
}

// SettingsService persists the model credential and mirrors it into the
// in-memory Credentials read by the composer.
type SettingsService struct {
	DB    *gorm.DB
	Creds *llm.Credentials
}

// Load restores a persisted credential at startup. When none is stored the
// current in-memory value (usually from the environment) is kept.
func (s *SettingsService) Load(ctx context.Context) error {
	v, err := repo.GetSetting(ctx, s.DB, SettingModelKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	s.Creds.Set(v)
	log.Info().Msg("model credential restored from settings")
	return nil
}

// Status reports whether a credential is configured.
func (s *SettingsService) Status() KeyStatus {
	key := s.Creds.Get()
	return KeyStatus{Configured: key != "", Masked: llm.Masked(key)}
}

// SetKey stores key and makes it visible to subsequent queries.
func (s *SettingsService) SetKey(ctx context.Context, key string) (KeyStatus, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return KeyStatus{}, ErrEmptyKey
	}
	if err := repo.PutSetting(ctx, s.DB, SettingModelKey, key); err != nil {
		return KeyStatus{}, err
	}
	s.Creds.Set(key)
	return s.Status(), nil
}

// ClearKey removes the stored credential; subsequent queries answer locally.
func (s *SettingsService) ClearKey(ctx context.Context) error {
	if err := repo.DeleteSetting(ctx, s.DB, SettingModelKey); err != nil {
		return err
	}
	s.Creds.Clear()
	return nil
}
