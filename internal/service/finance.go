// Package service provides the business logic layer (use cases).
// FinanceService handles transactions and the profile balance;
// WishlistService handles wishlist items including the "buy" flow;
// SettingsService handles the per-user AI credentials.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/format"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/port"
)

// todayISO returns today's date in the YYYY-MM-DD shape the store uses.
func todayISO() string {
	return format.ISODate(time.Now())
}

var financeTracer = otel.Tracer("service/finance")

// FinanceService orchestrates transaction CRUD and balance recomputation.
type FinanceService struct {
	transactions port.TransactionStore
	profiles     port.ProfileStore
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewFinanceService creates a new finance service.
func NewFinanceService(transactions port.TransactionStore, profiles port.ProfileStore, metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		transactions: transactions,
		profiles:     profiles,
		metrics:      metrics,
		logger:       logger,
	}
}

// ============================================================
// Transactions
// ============================================================

func (s *FinanceService) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.transactions.ListTransactions(ctx, userID)
}

// CreateTransaction validates and inserts a transaction. Manual entries
// default to pending. A completed entry changes the balance, so it triggers
// a recomputation.
func (s *FinanceService) CreateTransaction(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.Title == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "title is required"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be non-negative"}
	}
	if req.Type != domain.TransactionIncome && req.Type != domain.TransactionExpense {
		return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "date must be YYYY-MM-DD"}
	}

	status := req.Status
	if status == "" {
		status = domain.StatusPending
	}
	if status != domain.StatusPending && status != domain.StatusCompleted {
		return nil, &domain.ErrValidation{Field: "status", Message: "status must be pending or completed"}
	}

	tx, err := s.transactions.InsertTransaction(ctx, &domain.Transaction{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  req.Title,
		Amount: req.Amount,
		Type:   req.Type,
		Date:   req.Date,
		Status: status,
	})
	if err != nil {
		return nil, err
	}

	if tx.Status == domain.StatusCompleted {
		if _, err := s.RecomputeBalance(ctx, userID); err != nil {
			s.logger.Error("balance recompute after create failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return tx, nil
}

// UpdateTransaction applies a partial edit. Status can only move
// pending → completed; any other transition is rejected.
func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, txID string, patch *domain.TransactionPatch) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()

	existing, err := s.transactions.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, &domain.ErrValidation{Field: "title", Message: "title is required"}
		}
		fields["title"] = *patch.Title
	}
	if patch.Amount != nil {
		if *patch.Amount < 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be non-negative"}
		}
		fields["amount"] = *patch.Amount
	}
	if patch.Type != nil {
		if *patch.Type != domain.TransactionIncome && *patch.Type != domain.TransactionExpense {
			return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
		}
		fields["type"] = *patch.Type
	}
	if patch.Date != nil {
		if _, err := time.Parse("2006-01-02", *patch.Date); err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: "date must be YYYY-MM-DD"}
		}
		fields["date"] = *patch.Date
	}
	if patch.Status != nil && *patch.Status != existing.Status {
		if existing.Status != domain.StatusPending || *patch.Status != domain.StatusCompleted {
			return nil, &domain.ErrConflict{Message: "status can only move from pending to completed"}
		}
		fields["status"] = *patch.Status
	}

	if len(fields) == 0 {
		return existing, nil
	}

	updated, err := s.transactions.UpdateTransaction(ctx, userID, txID, fields)
	if err != nil {
		return nil, err
	}

	// A completed row changed, or a row just became completed: either way
	// the cached balance is stale now.
	if existing.Status == domain.StatusCompleted || updated.Status == domain.StatusCompleted {
		if _, err := s.RecomputeBalance(ctx, userID); err != nil {
			s.logger.Error("balance recompute after update failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return updated, nil
}

// ConfirmTransaction flips a pending transaction to completed and
// recomputes the balance.
func (s *FinanceService) ConfirmTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ConfirmTransaction")
	defer span.End()

	completed := domain.StatusCompleted
	return s.UpdateTransaction(ctx, userID, txID, &domain.TransactionPatch{Status: &completed})
}

// DeleteTransaction removes a transaction; deleting a completed one
// invalidates the cached balance.
func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, txID string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteTransaction")
	defer span.End()

	existing, err := s.transactions.GetTransaction(ctx, userID, txID)
	if err != nil {
		return err
	}
	if err := s.transactions.DeleteTransaction(ctx, userID, txID); err != nil {
		return err
	}

	if existing.Status == domain.StatusCompleted {
		if _, err := s.RecomputeBalance(ctx, userID); err != nil {
			s.logger.Error("balance recompute after delete failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ============================================================
// Profile & balance
// ============================================================

// GetProfile returns the user profile, creating an empty one on first access.
func (s *FinanceService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	// First access: seed an empty profile so the frontend has a row to bind.
	return s.profiles.UpsertProfile(ctx, &domain.Profile{ID: userID})
}

// UpdateProfileName changes the display name, keeping the stored balance.
func (s *FinanceService) UpdateProfileName(ctx context.Context, userID, name string) (*domain.Profile, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateProfileName")
	defer span.End()

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Name = name
	return s.profiles.UpsertProfile(ctx, profile)
}

// RecomputeBalance derives the balance from completed transactions
// (income − expense) and writes it back to the profile. The balance is
// never adjusted incrementally: re-reading the source rows every time is
// what keeps it drift-free.
func (s *FinanceService) RecomputeBalance(ctx context.Context, userID string) (float64, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.RecomputeBalance")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("recompute_balance", time.Since(start))
	}()

	completed, err := s.transactions.ListTransactionsByStatus(ctx, userID, domain.StatusCompleted, "date.asc", 0)
	if err != nil {
		return 0, err
	}

	var balance float64
	for _, tx := range completed {
		switch tx.Type {
		case domain.TransactionIncome:
			balance += tx.Amount
		case domain.TransactionExpense:
			balance -= tx.Amount
		}
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	profile.CurrentBalance = balance
	if _, err := s.profiles.UpsertProfile(ctx, profile); err != nil {
		return 0, err
	}

	s.logger.Debug("balance recomputed",
		zap.String("user_id", userID),
		zap.Float64("balance", balance),
		zap.Int("completed_rows", len(completed)),
	)
	return balance, nil
}
