package service

import (
	"context"
	"errors"
	"testing"

	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/infra/observability"

	"go.uber.org/zap"
)

type memWishlistStore struct {
	rows map[string]*domain.WishlistItem
}

func newMemWishlistStore() *memWishlistStore {
	return &memWishlistStore{rows: map[string]*domain.WishlistItem{}}
}

func (m *memWishlistStore) ListWishlists(_ context.Context, userID string, limit int) ([]domain.WishlistItem, error) {
	var out []domain.WishlistItem
	for _, item := range m.rows {
		if item.UserID == userID {
			out = append(out, *item)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memWishlistStore) GetWishlistItem(_ context.Context, userID, itemID string) (*domain.WishlistItem, error) {
	item, ok := m.rows[itemID]
	if !ok || item.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "wishlist_item", ID: itemID}
	}
	cp := *item
	return &cp, nil
}

func (m *memWishlistStore) InsertWishlistItem(_ context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error) {
	cp := *item
	m.rows[item.ID] = &cp
	return item, nil
}

func (m *memWishlistStore) UpdateWishlistItem(_ context.Context, userID, itemID string, fields map[string]any) (*domain.WishlistItem, error) {
	item, ok := m.rows[itemID]
	if !ok || item.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "wishlist_item", ID: itemID}
	}
	if v, ok := fields["item_name"]; ok {
		item.ItemName = v.(string)
	}
	if v, ok := fields["estimated_cost"]; ok {
		item.EstimatedCost = v.(float64)
	}
	if v, ok := fields["priority"]; ok {
		item.Priority = v.(int)
	}
	if v, ok := fields["status"]; ok {
		item.Status = v.(string)
	}
	cp := *item
	return &cp, nil
}

func (m *memWishlistStore) DeleteWishlistItem(_ context.Context, userID, itemID string) error {
	delete(m.rows, itemID)
	return nil
}

func newWishlistFixture() (*WishlistService, *memTransactionStore) {
	txs := newMemTransactionStore()
	finance := NewFinanceService(txs, newMemProfileStore(), observability.NewMetrics(), zap.NewNop())
	svc := NewWishlistService(newMemWishlistStore(), finance, observability.NewMetrics(), zap.NewNop())
	return svc, txs
}

func TestCreateWishlistItem_StartsPending(t *testing.T) {
	svc, _ := newWishlistFixture()

	item, err := svc.CreateWishlistItem(context.Background(), "u1", &domain.WishlistRequest{
		ItemName: "Sepatu lari", EstimatedCost: 750000, Priority: 2,
	})
	if err != nil {
		t.Fatalf("CreateWishlistItem: %v", err)
	}
	if item.Status != domain.StatusPending {
		t.Errorf("Status = %q, want pending", item.Status)
	}
}

func TestBuyWishlistItem_RecordsOneExpense(t *testing.T) {
	svc, txs := newWishlistFixture()
	ctx := context.Background()

	item, err := svc.CreateWishlistItem(ctx, "u1", &domain.WishlistRequest{
		ItemName: "Sepatu lari", EstimatedCost: 750000, Priority: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.BuyWishlistItem(ctx, "u1", item.ID)
	if err != nil {
		t.Fatalf("BuyWishlistItem: %v", err)
	}
	if result.Item.Status != domain.StatusCompleted {
		t.Errorf("item status = %q, want completed", result.Item.Status)
	}
	tx := result.Transaction
	if tx.Title != "Beli Sepatu lari" || tx.Amount != 750000 || tx.Type != domain.TransactionExpense || tx.Status != domain.StatusCompleted {
		t.Errorf("transaction = %+v", tx)
	}
	if result.NewBalance != -750000 {
		t.Errorf("NewBalance = %v, want -750000", result.NewBalance)
	}

	rows, _ := txs.ListTransactions(ctx, "u1")
	if len(rows) != 1 {
		t.Errorf("transactions = %d, want exactly one expense", len(rows))
	}
}

func TestBuyWishlistItem_AlreadyBoughtConflicts(t *testing.T) {
	svc, txs := newWishlistFixture()
	ctx := context.Background()

	item, err := svc.CreateWishlistItem(ctx, "u1", &domain.WishlistRequest{
		ItemName: "Meja", EstimatedCost: 1000000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.BuyWishlistItem(ctx, "u1", item.ID); err != nil {
		t.Fatalf("first buy: %v", err)
	}

	_, err = svc.BuyWishlistItem(ctx, "u1", item.ID)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("second buy err = %v, want ErrConflict", err)
	}
	rows, _ := txs.ListTransactions(ctx, "u1")
	if len(rows) != 1 {
		t.Errorf("transactions = %d, second buy must not add an expense", len(rows))
	}
}

func TestUpdateWishlistItem_BoughtItemIsImmutable(t *testing.T) {
	svc, _ := newWishlistFixture()
	ctx := context.Background()

	item, err := svc.CreateWishlistItem(ctx, "u1", &domain.WishlistRequest{
		ItemName: "Kursi", EstimatedCost: 400000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.BuyWishlistItem(ctx, "u1", item.ID); err != nil {
		t.Fatalf("buy: %v", err)
	}

	name := "Kursi gaming"
	_, err = svc.UpdateWishlistItem(ctx, "u1", item.ID, &domain.WishlistPatch{ItemName: &name})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}
