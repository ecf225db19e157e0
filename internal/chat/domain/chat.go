package domain

import (
	"fmt"

	"github.com/wangku-app/wangku-api/internal/domain"
)

// ============================================================
// Snapshot — financial context assembled for a single AI call
// ============================================================

// SnapshotMode selects which sections of the financial context
// are rendered for the model.
type SnapshotMode int

const (
	// ModeChat renders balance, recent completed transactions,
	// upcoming pending transactions and the wishlist.
	ModeChat SnapshotMode = iota
	// ModeSummary renders balance, upcoming transactions and the
	// wishlist only.
	ModeSummary
)

// FinancialSnapshot holds the user data fetched just before a chat
// or summary turn. It is assembled fresh for every call and never
// cached, so the model always sees current state.
type FinancialSnapshot struct {
	Balance   float64
	Recent    []domain.Transaction
	Upcoming  []domain.Transaction
	Wishlists []domain.WishlistItem
}

// ============================================================
// TerMai wire types
// ============================================================

// TermaiRequest is the exact body posted to the TerMai chat
// endpoint. Field names follow the provider's contract.
type TermaiRequest struct {
	Text          string `json:"text"`
	ID            string `json:"id"`
	FullAIName    string `json:"fullainame"`
	NickAIName    string `json:"nickainame"`
	SenderName    string `json:"senderName"`
	OwnerName     string `json:"ownerName"`
	Date          string `json:"date"`
	Role          string `json:"role"`
	MsgType       string `json:"msgtype"`
	CustomProfile string `json:"custom_profile"`
}

// ============================================================
// Resolver outcome
// ============================================================

// OutcomeKind classifies a decoded provider response.
type OutcomeKind int

const (
	// OutcomeContent means the provider returned usable reply text.
	OutcomeContent OutcomeKind = iota
	// OutcomeEmpty means the provider reported success but carried
	// no reply in any known field.
	OutcomeEmpty
	// OutcomeFailure means the provider reported an in-band error
	// (status != true).
	OutcomeFailure
)

// Outcome is the result of resolving a raw provider payload into
// reply text. Text is set for OutcomeContent; Detail carries the
// failure description for OutcomeFailure.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Detail string
}

// ============================================================
// Action instructions
// ============================================================

const (
	ActionAddTransaction = "ADD_TRANSACTION"
	ActionAddWishlist    = "ADD_WISHLIST"
)

// AddTransactionData is the payload of an ADD_TRANSACTION
// instruction emitted by the model.
type AddTransactionData struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Date   string  `json:"date"`
	Status string  `json:"status"`
}

// AddWishlistData is the payload of an ADD_WISHLIST instruction.
type AddWishlistData struct {
	ItemName      string  `json:"item_name"`
	EstimatedCost float64 `json:"estimated_cost"`
	Priority      int     `json:"priority"`
}

// ActionInstruction is a validated side-effect request extracted
// from a model reply. Exactly one of Transaction or Wishlist is
// non-nil, matching Type.
type ActionInstruction struct {
	Type        string
	Transaction *AddTransactionData
	Wishlist    *AddWishlistData
}

// ============================================================
// Request / response shapes
// ============================================================

// ChatRequest is an incoming user chat turn. ConversationID is
// optional; when empty the user id is used so each user keeps a
// single provider-side conversation.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the result of a processed chat turn. ActionError
// is set when an instruction validated but failed to persist; the
// reply itself is still delivered.
type ChatResponse struct {
	Reply         string `json:"reply"`
	ActionApplied bool   `json:"action_applied"`
	ActionType    string `json:"action_type,omitempty"`
	ActionError   string `json:"action_error,omitempty"`
}

// ResetResponse reports the provider's answer to a conversation
// reset request.
type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SummaryResponse carries the HTML fragment produced by the
// summary generator.
type SummaryResponse struct {
	HTML string `json:"html"`
}

// ============================================================
// Fixed user-facing messages
// ============================================================

// These strings are part of the product's voice and must not be
// reworded. The assistant persona is named Wangi.
const (
	// MsgMissingTermaiKey is returned, without calling the
	// provider, when the user has not configured a TerMai key.
	MsgMissingTermaiKey = "Silakan isi TerMai API Key di menu Profile untuk menggunakan AI Chat."

	// MsgConnectivity is returned when the provider cannot be
	// reached at the transport level.
	MsgConnectivity = "Gagal terhubung ke server TerMai. Pastikan API Key valid dan koneksi internet stabil."

	// MsgEmptySuccess is returned when the provider reports
	// success but no reply text could be resolved.
	MsgEmptySuccess = "Wangi sedang berpikir, tapi tidak ada jawaban. Coba klik tombol Reset di pojok kanan atas layar chat ya."

	// MsgSummaryMissingKey is the HTML guidance shown when no
	// Gemini key is configured.
	MsgSummaryMissingKey = `<p class="text-sm">Silakan isi <strong>Gemini API Key</strong> di menu <a href="/profile" class="text-primary underline">Profile</a> untuk mengaktifkan AI Assistant.</p>`

	// MsgSummaryAPIError is the HTML shown when the Gemini call
	// fails at the transport level.
	MsgSummaryAPIError = `<p class="text-destructive">Gagal menghubungi Gemini API. Coba lagi atau cek API Key-mu.</p>`
)

// MalformedResponseError reports a provider body that could not be
// decoded as JSON. Raw holds a truncated copy of the body for the
// user-facing error message.
type MalformedResponseError struct {
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %s", e.Raw)
}
