package port

import (
	"context"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/domain"
)

// ChatTransport talks to the conversational AI provider. Send posts
// a single turn and returns the decoded response payload regardless
// of HTTP status; in-band failures are left for the resolver.
// Implementations must not retry — the provider call is not
// idempotent.
type ChatTransport interface {
	Send(ctx context.Context, req *chatdomain.TermaiRequest, apiKey string) (map[string]any, error)
	Reset(ctx context.Context, conversationID, apiKey string) (*chatdomain.ResetResponse, error)
}

// Summarizer produces a free-form completion for a prompt. Used for
// the financial summary generator.
type Summarizer interface {
	GenerateContent(ctx context.Context, prompt, apiKey string) (string, error)
}

// SettingsSource exposes the decrypted per-user credentials.
type SettingsSource interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
}

// TransactionCreator persists a transaction originating from a
// model instruction, running the same validation and balance rules
// as a manual create.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error)
}

// WishlistCreator persists a wishlist item originating from a model
// instruction.
type WishlistCreator interface {
	CreateWishlistItem(ctx context.Context, userID string, req *domain.WishlistRequest) (*domain.WishlistItem, error)
}

// ActionApplier executes a validated action instruction on behalf
// of a user.
type ActionApplier interface {
	ApplyAction(ctx context.Context, userID string, instr *chatdomain.ActionInstruction) error
}
