// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/wangku-app/wangku-api/internal/domain"
)

// TransactionStore defines the record-store operations for transactions.
// Implemented by the Supabase adapter. All operations are scoped to the
// owning user.
type TransactionStore interface {
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	ListTransactionsByStatus(ctx context.Context, userID, status, order string, limit int) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID string) error
}

// WishlistStore defines the record-store operations for wishlist items.
type WishlistStore interface {
	ListWishlists(ctx context.Context, userID string, limit int) ([]domain.WishlistItem, error)
	GetWishlistItem(ctx context.Context, userID, itemID string) (*domain.WishlistItem, error)
	InsertWishlistItem(ctx context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error)
	UpdateWishlistItem(ctx context.Context, userID, itemID string, fields map[string]any) (*domain.WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, userID, itemID string) error
}

// ProfileStore defines the record-store operations for user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
}

// ChatLogStore persists the append-only chat history.
type ChatLogStore interface {
	ListChatMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	AppendChatMessage(ctx context.Context, msg *domain.ChatMessage) error
}

// SettingsStore persists the per-user encrypted AI credentials.
// Values passed through this port are already sealed; encryption lives in
// the settings service, not the store.
type SettingsStore interface {
	GetSettingsRow(ctx context.Context, userID string) (*SettingsRow, error)
	UpsertSettingsRow(ctx context.Context, row *SettingsRow) error
}

// SettingsRow is the at-rest shape of user_settings.
type SettingsRow struct {
	UserID       string    `json:"user_id"`
	TermaiKeyEnc string    `json:"termai_key_enc"`
	GeminiKeyEnc string    `json:"gemini_key_enc"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
