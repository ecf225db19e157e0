package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/domain"
)

// ============================================================
// Action extractor — finds and validates the trailing
// @@ACTION:{...}@@ tag in a model reply
// ============================================================

// The tag is only honoured at the end of the reply, so quoted or
// mid-text examples are not executed.
var actionTagRe = regexp.MustCompile(`(?s)@@ACTION:(\{.*\})@@\s*$`)

type rawAction struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// number tolerates both JSON numbers and numeric strings for
// amount-like fields, since models occasionally quote values.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", string(b))
	}
	*n = number(v)
	return nil
}

// ExtractAction splits a reply into clean display text and, when a
// valid trailing tag is present, a validated instruction. The tag
// is always removed from the text even when its payload turns out
// to be invalid; err then reports why the instruction was dropped.
func ExtractAction(reply string) (clean string, instr *chatdomain.ActionInstruction, err error) {
	// Anchor on the last occurrence so a quoted example earlier in
	// the reply never shadows the real trailing tag.
	start := strings.LastIndex(reply, "@@ACTION:")
	if start < 0 {
		return strings.TrimSpace(reply), nil, nil
	}
	m := actionTagRe.FindStringSubmatchIndex(reply[start:])
	if m == nil {
		return strings.TrimSpace(reply), nil, nil
	}

	clean = strings.TrimSpace(reply[:start])
	payload := reply[start+m[2] : start+m[3]]

	var raw rawAction
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return clean, nil, fmt.Errorf("malformed action tag: %w", err)
	}

	switch raw.Type {
	case chatdomain.ActionAddTransaction:
		instr, err = validateAddTransaction(raw.Data)
	case chatdomain.ActionAddWishlist:
		instr, err = validateAddWishlist(raw.Data)
	default:
		return clean, nil, fmt.Errorf("unknown action type %q", raw.Type)
	}
	return clean, instr, err
}

func validateAddTransaction(data json.RawMessage) (*chatdomain.ActionInstruction, error) {
	var body struct {
		Title  string `json:"title"`
		Amount number `json:"amount"`
		Type   string `json:"type"`
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("malformed transaction data: %w", err)
	}
	if strings.TrimSpace(body.Title) == "" {
		return nil, fmt.Errorf("transaction title is required")
	}
	if body.Amount < 0 {
		return nil, fmt.Errorf("transaction amount must be non-negative")
	}
	// The model is told to use English type tokens; anything else,
	// including Indonesian words like "pemasukan", is rejected.
	if body.Type != domain.TransactionIncome && body.Type != domain.TransactionExpense {
		return nil, fmt.Errorf("invalid transaction type %q", body.Type)
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		return nil, fmt.Errorf("invalid transaction date %q", body.Date)
	}
	if body.Status != domain.StatusPending && body.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("invalid transaction status %q", body.Status)
	}
	return &chatdomain.ActionInstruction{
		Type: chatdomain.ActionAddTransaction,
		Transaction: &chatdomain.AddTransactionData{
			Title:  strings.TrimSpace(body.Title),
			Amount: float64(body.Amount),
			Type:   body.Type,
			Date:   body.Date,
			Status: body.Status,
		},
	}, nil
}

func validateAddWishlist(data json.RawMessage) (*chatdomain.ActionInstruction, error) {
	var body struct {
		ItemName      string `json:"item_name"`
		EstimatedCost number `json:"estimated_cost"`
		Priority      number `json:"priority"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("malformed wishlist data: %w", err)
	}
	if strings.TrimSpace(body.ItemName) == "" {
		return nil, fmt.Errorf("wishlist item_name is required")
	}
	if body.EstimatedCost < 0 {
		return nil, fmt.Errorf("wishlist estimated_cost must be non-negative")
	}
	if body.Priority < 0 {
		return nil, fmt.Errorf("wishlist priority must be non-negative")
	}
	return &chatdomain.ActionInstruction{
		Type: chatdomain.ActionAddWishlist,
		Wishlist: &chatdomain.AddWishlistData{
			ItemName:      strings.TrimSpace(body.ItemName),
			EstimatedCost: float64(body.EstimatedCost),
			Priority:      int(body.Priority),
		},
	}, nil
}
