package service

import (
	"context"
	"fmt"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	chatport "github.com/wangku-app/wangku-api/internal/chat/port"
	"github.com/wangku-app/wangku-api/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Applicator — executes validated action instructions through
// the same write paths as manual mutations
// ============================================================

// Applicator persists action instructions. It goes through the
// regular finance services, so validation, balance recomputation
// and defaults behave exactly as they do for manual requests.
type Applicator struct {
	transactions chatport.TransactionCreator
	wishlists    chatport.WishlistCreator
	logger       *zap.Logger
}

func NewApplicator(transactions chatport.TransactionCreator, wishlists chatport.WishlistCreator, logger *zap.Logger) *Applicator {
	return &Applicator{
		transactions: transactions,
		wishlists:    wishlists,
		logger:       logger,
	}
}

// ApplyAction executes a single instruction for the user.
func (a *Applicator) ApplyAction(ctx context.Context, userID string, instr *chatdomain.ActionInstruction) error {
	switch instr.Type {
	case chatdomain.ActionAddTransaction:
		t := instr.Transaction
		_, err := a.transactions.CreateTransaction(ctx, userID, &domain.TransactionRequest{
			Title:  t.Title,
			Amount: t.Amount,
			Type:   t.Type,
			Date:   t.Date,
			Status: t.Status,
		})
		if err != nil {
			return err
		}
		a.logger.Info("applied chat action",
			zap.String("user_id", userID),
			zap.String("action", instr.Type),
			zap.String("title", t.Title),
		)
		return nil

	case chatdomain.ActionAddWishlist:
		w := instr.Wishlist
		_, err := a.wishlists.CreateWishlistItem(ctx, userID, &domain.WishlistRequest{
			ItemName:      w.ItemName,
			EstimatedCost: w.EstimatedCost,
			Priority:      w.Priority,
		})
		if err != nil {
			return err
		}
		a.logger.Info("applied chat action",
			zap.String("user_id", userID),
			zap.String("action", instr.Type),
			zap.String("item_name", w.ItemName),
		)
		return nil

	default:
		return fmt.Errorf("unsupported action type %q", instr.Type)
	}
}
