package service

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/port"
)

var settingsTracer = otel.Tracer("service/settings")

// SettingsService manages the per-user AI credentials (TerMai and Gemini
// API keys). Keys are sealed with ChaCha20-Poly1305 before they reach the
// store and decrypted on read. Decrypted settings are cached with TTL and
// invalidated on every edit, so the chat path does not hit the store (or
// the cipher) on every turn.
type SettingsService struct {
	store   port.SettingsStore
	cache   port.Cache[*domain.Settings]
	aead    cipher.AEAD
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSettingsService creates the settings service. secretHex must decode to
// a 32-byte key; an invalid secret is a deployment error and panics at boot.
func NewSettingsService(store port.SettingsStore, cache port.Cache[*domain.Settings], secretHex string, metrics *observability.Metrics, logger *zap.Logger) *SettingsService {
	key, err := hex.DecodeString(secretHex)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		panic("settings: SETTINGS_SECRET must be 32 bytes of hex")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		panic("settings: " + err.Error())
	}
	return &SettingsService{
		store:   store,
		cache:   cache,
		aead:    aead,
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns the decrypted settings for a user. A user with no settings row
// gets an empty Settings value, not an error — missing credentials are a
// normal state handled by the chat/summary services.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.Get")
	defer span.End()

	cacheKey := fmt.Sprintf("settings:%s", userID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("settings")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("settings")

	row, err := s.store.GetSettingsRow(ctx, userID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			empty := &domain.Settings{UserID: userID}
			s.cache.Set(cacheKey, empty)
			return empty, nil
		}
		return nil, err
	}

	settings := &domain.Settings{UserID: userID}
	if row.TermaiKeyEnc != "" {
		if settings.TermaiKey, err = s.open(row.TermaiKeyEnc); err != nil {
			return nil, fmt.Errorf("decrypt termai key: %w", err)
		}
	}
	if row.GeminiKeyEnc != "" {
		if settings.GeminiKey, err = s.open(row.GeminiKeyEnc); err != nil {
			return nil, fmt.Errorf("decrypt gemini key: %w", err)
		}
	}

	s.cache.Set(cacheKey, settings)
	return settings, nil
}

// State returns the masked view for GET /v1/settings.
func (s *SettingsService) State(ctx context.Context, userID string) (*domain.SettingsState, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.State")
	defer span.End()

	state := &domain.SettingsState{}
	row, err := s.store.GetSettingsRow(ctx, userID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return state, nil
		}
		return nil, err
	}
	state.TermaiKeySet = row.TermaiKeyEnc != ""
	state.GeminiKeySet = row.GeminiKeyEnc != ""
	state.UpdatedAt = row.UpdatedAt
	return state, nil
}

// Put updates one or both credentials and invalidates the cache. Empty
// request fields leave the stored key untouched.
func (s *SettingsService) Put(ctx context.Context, userID string, req *domain.SettingsRequest) error {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.Put")
	defer span.End()

	row, err := s.store.GetSettingsRow(ctx, userID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return err
		}
		row = &port.SettingsRow{UserID: userID}
	}

	if req.TermaiKey != "" {
		if row.TermaiKeyEnc, err = s.seal(req.TermaiKey); err != nil {
			return fmt.Errorf("encrypt termai key: %w", err)
		}
	}
	if req.GeminiKey != "" {
		if row.GeminiKeyEnc, err = s.seal(req.GeminiKey); err != nil {
			return fmt.Errorf("encrypt gemini key: %w", err)
		}
	}

	if err := s.store.UpsertSettingsRow(ctx, row); err != nil {
		return err
	}

	s.cache.Delete(fmt.Sprintf("settings:%s", userID))
	s.logger.Info("settings updated",
		zap.String("user_id", userID),
		zap.Bool("termai_key", req.TermaiKey != ""),
		zap.Bool("gemini_key", req.GeminiKey != ""),
	)
	return nil
}

// seal encrypts a plaintext key as base64(nonce || ciphertext).
func (s *SettingsService) seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// open reverses seal.
func (s *SettingsService) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
