// Package domain holds the core data model of the WangKu API:
// transactions, wishlist items, the user profile with its cached balance,
// the chat log and per-user settings.
package domain

import "time"

// Transaction types. The two tokens are part of the wire contract with the
// frontend AND with the AI action protocol — never localized.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Row status for transactions and wishlist items.
// The only legal transition is pending → completed.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Transaction is a single income or expense entry.
// Date is a plain calendar date (YYYY-MM-DD); amounts are rupiah with no
// explicit currency column.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// WishlistItem is a planned purchase. Lower priority value = higher priority.
type WishlistItem struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ItemName      string    `json:"item_name"`
	EstimatedCost float64   `json:"estimated_cost"`
	Priority      int       `json:"priority"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Profile carries the display name and the cached balance. The balance is
// derived: it is always recomputed from completed transactions and written
// back, never adjusted incrementally, so it cannot drift.
type Profile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CurrentBalance float64 `json:"current_balance"`
}

// Chat log roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the append-only chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // RoleUser or RoleAssistant
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings holds the per-user credentials for the remote AI endpoints,
// in decrypted form. At rest both keys are sealed (see service.Settings).
type Settings struct {
	UserID    string
	TermaiKey string
	GeminiKey string
}

// SettingsState is what GET /v1/settings returns — never the keys themselves.
type SettingsState struct {
	TermaiKeySet bool      `json:"termai_key_set"`
	GeminiKeySet bool      `json:"gemini_key_set"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- Request payloads ---

// TransactionRequest is the body for POST /v1/transactions.
type TransactionRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Date   string  `json:"date"`
	Status string  `json:"status,omitempty"`
}

// TransactionPatch carries the updatable fields for PATCH /v1/transactions/{id}.
// Pointers distinguish "absent" from zero values.
type TransactionPatch struct {
	Title  *string  `json:"title,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Type   *string  `json:"type,omitempty"`
	Date   *string  `json:"date,omitempty"`
	Status *string  `json:"status,omitempty"`
}

// WishlistRequest is the body for POST /v1/wishlists.
type WishlistRequest struct {
	ItemName      string  `json:"item_name"`
	EstimatedCost float64 `json:"estimated_cost"`
	Priority      int     `json:"priority"`
}

// WishlistPatch carries the updatable fields for PATCH /v1/wishlists/{id}.
type WishlistPatch struct {
	ItemName      *string  `json:"item_name,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	Priority      *int     `json:"priority,omitempty"`
}

// ProfileRequest is the body for PUT /v1/profile.
type ProfileRequest struct {
	Name string `json:"name"`
}

// SettingsRequest is the body for PUT /v1/settings. Empty fields are left
// untouched so each key can be updated independently.
type SettingsRequest struct {
	TermaiKey string `json:"termai_key,omitempty"`
	GeminiKey string `json:"gemini_key,omitempty"`
}

// BuyResult is the outcome of the compound "buy wishlist item" operation.
// The status flip and the expense insert are two separate store calls, not
// a transaction; a crash in between leaves the item bought with no matching
// expense. Known limitation.
type BuyResult struct {
	Item        *WishlistItem `json:"item"`
	Transaction *Transaction  `json:"transaction"`
	NewBalance  float64       `json:"new_balance"`
}
