package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wangku-app/wangku-api/internal/authn"
	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	chatservice "github.com/wangku-app/wangku-api/internal/chat/service"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/infra/cache"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/infra/resilience"
	"github.com/wangku-app/wangku-api/internal/port"
	"github.com/wangku-app/wangku-api/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	testJWTSecret      = "router-test-jwt-secret"
	testSettingsSecret = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// memStore is a single in-memory implementation of every store port,
// standing in for the PostgREST client.
type memStore struct {
	transactions map[string]*domain.Transaction
	wishlists    map[string]*domain.WishlistItem
	profiles     map[string]*domain.Profile
	settings     map[string]*port.SettingsRow
	chatlog      []domain.ChatMessage
}

func newMemStore() *memStore {
	return &memStore{
		transactions: map[string]*domain.Transaction{},
		wishlists:    map[string]*domain.WishlistItem{},
		profiles:     map[string]*domain.Profile{},
		settings:     map[string]*port.SettingsRow{},
	}
}

func (m *memStore) ListTransactions(_ context.Context, userID string) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (m *memStore) ListTransactionsByStatus(_ context.Context, userID, status, _ string, limit int) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.Status == status {
			out = append(out, *tx)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) GetTransaction(_ context.Context, userID, txID string) (*domain.Transaction, error) {
	tx, ok := m.transactions[txID]
	if !ok || tx.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	cp := *tx
	return &cp, nil
}

func (m *memStore) InsertTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	cp := *tx
	m.transactions[tx.ID] = &cp
	return tx, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error) {
	tx, ok := m.transactions[txID]
	if !ok || tx.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	if v, ok := fields["status"]; ok {
		tx.Status = v.(string)
	}
	if v, ok := fields["title"]; ok {
		tx.Title = v.(string)
	}
	cp := *tx
	return &cp, nil
}

func (m *memStore) DeleteTransaction(_ context.Context, _, txID string) error {
	delete(m.transactions, txID)
	return nil
}

func (m *memStore) ListWishlists(_ context.Context, userID string, limit int) ([]domain.WishlistItem, error) {
	out := []domain.WishlistItem{}
	for _, item := range m.wishlists {
		if item.UserID == userID {
			out = append(out, *item)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) GetWishlistItem(_ context.Context, userID, itemID string) (*domain.WishlistItem, error) {
	item, ok := m.wishlists[itemID]
	if !ok || item.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "wishlist_item", ID: itemID}
	}
	cp := *item
	return &cp, nil
}

func (m *memStore) InsertWishlistItem(_ context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error) {
	cp := *item
	m.wishlists[item.ID] = &cp
	return item, nil
}

func (m *memStore) UpdateWishlistItem(_ context.Context, userID, itemID string, fields map[string]any) (*domain.WishlistItem, error) {
	item, ok := m.wishlists[itemID]
	if !ok || item.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "wishlist_item", ID: itemID}
	}
	if v, ok := fields["status"]; ok {
		item.Status = v.(string)
	}
	if v, ok := fields["item_name"]; ok {
		item.ItemName = v.(string)
	}
	cp := *item
	return &cp, nil
}

func (m *memStore) DeleteWishlistItem(_ context.Context, _, itemID string) error {
	delete(m.wishlists, itemID)
	return nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpsertProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	cp := *p
	m.profiles[p.ID] = &cp
	return p, nil
}

func (m *memStore) ListChatMessages(_ context.Context, userID string) ([]domain.ChatMessage, error) {
	out := []domain.ChatMessage{}
	for _, msg := range m.chatlog {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) AppendChatMessage(_ context.Context, msg *domain.ChatMessage) error {
	cp := *msg
	cp.ID = uuid.New().String()
	m.chatlog = append(m.chatlog, cp)
	return nil
}

func (m *memStore) GetSettingsRow(_ context.Context, userID string) (*port.SettingsRow, error) {
	row, ok := m.settings[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user_settings", ID: userID}
	}
	cp := *row
	return &cp, nil
}

func (m *memStore) UpsertSettingsRow(_ context.Context, row *port.SettingsRow) error {
	cp := *row
	cp.UpdatedAt = time.Now()
	m.settings[row.UserID] = &cp
	return nil
}

type stubTransport struct {
	payload map[string]any
}

func (s *stubTransport) Send(_ context.Context, _ *chatdomain.TermaiRequest, _ string) (map[string]any, error) {
	return s.payload, nil
}

func (s *stubTransport) Reset(_ context.Context, _, _ string) (*chatdomain.ResetResponse, error) {
	return &chatdomain.ResetResponse{Success: true}, nil
}

type stubSummarizer struct{ html string }

func (s *stubSummarizer) GenerateContent(_ context.Context, _, _ string) (string, error) {
	return s.html, nil
}

func newTestRouter(t *testing.T, store *memStore, transport *stubTransport) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	finance := service.NewFinanceService(store, store, metrics, logger)
	wishlist := service.NewWishlistService(store, finance, metrics, logger)
	settings := service.NewSettingsService(store, cache.New[*domain.Settings](time.Minute), testSettingsSecret, metrics, logger)

	applier := chatservice.NewApplicator(finance, wishlist, logger)
	chat := chatservice.NewChatService(
		transport, settings, applier,
		store, store, store, store,
		resilience.NewBulkhead(2), metrics, logger, 10,
	)
	summary := chatservice.NewSummaryService(
		&stubSummarizer{html: "<p>Aman.</p>"}, settings,
		store, store, store, metrics, logger, 10,
	)

	return NewRouter(&Services{
		Finance:  finance,
		Wishlist: wishlist,
		Settings: settings,
		Chat:     chat,
		Summary:  summary,
	}, authn.NewValidator(testJWTSecret, logger), metrics, logger)
}

func signToken(t *testing.T, userID, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// Tests
// ============================================================

func TestRouter_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})

	for _, path := range []string{"/v1/transactions", "/v1/profile", "/v1/chat/history", "/v1/settings"} {
		rec := doRequest(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, rec.Code)
		}
	}

	rec := doRequest(t, router, http.MethodGet, "/v1/transactions", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token = %d, want 401", rec.Code)
	}
}

func TestRouter_OperationalEndpointsAreOpen(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics"} {
		rec := doRequest(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouter_TransactionLifecycle(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})
	token := signToken(t, "u1", "rani@example.com")

	rec := doRequest(t, router, http.MethodPost, "/v1/transactions", token, map[string]any{
		"title": "Bayar kos", "amount": 750000, "type": "expense", "date": "2026-09-05",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Status != domain.StatusPending {
		t.Errorf("Status = %q, want pending", created.Status)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/transactions/"+created.ID+"/confirm", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm = %d: %s", rec.Code, rec.Body.String())
	}

	// Confirming twice conflicts.
	rec = doRequest(t, router, http.MethodPost, "/v1/transactions/"+created.ID+"/confirm", token, nil)
	if rec.Code != http.StatusOK {
		// A no-op patch is fine too, but a conflict body must not 500.
		if rec.Code != http.StatusConflict {
			t.Errorf("second confirm = %d", rec.Code)
		}
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/transactions", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var listResp struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Transactions) != 1 {
		t.Errorf("transactions = %d, want 1", len(listResp.Transactions))
	}

	// Another user's token must not see them.
	otherToken := signToken(t, "u2", "")
	rec = doRequest(t, router, http.MethodGet, "/v1/transactions", otherToken, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Transactions) != 0 {
		t.Errorf("cross-user read returned %d rows", len(listResp.Transactions))
	}
}

func TestRouter_ValidationErrorsAre400(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})
	token := signToken(t, "u1", "")

	rec := doRequest(t, router, http.MethodPost, "/v1/transactions", token, map[string]any{
		"title": "x", "amount": 100, "type": "pemasukan", "date": "2026-09-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_ChatTurnAppliesAction(t *testing.T) {
	store := newMemStore()
	transport := &stubTransport{payload: map[string]any{
		"status": true,
		"data": map[string]any{
			"msg": "Dicatat!\n@@ACTION:{\"type\": \"ADD_TRANSACTION\", \"data\": {\"title\": \"Makan siang\", \"amount\": 25000, \"type\": \"expense\", \"date\": \"2026-09-01\", \"status\": \"completed\"}}@@",
		},
	}}
	router := newTestRouter(t, store, transport)
	token := signToken(t, "u1", "rani@example.com")

	// Configure the TerMai key first.
	rec := doRequest(t, router, http.MethodPut, "/v1/settings", token, map[string]any{"termai_key": "tk-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put settings = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/chat", token, map[string]any{"message": "catat makan siang 25rb"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat = %d: %s", rec.Code, rec.Body.String())
	}
	var resp chatdomain.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if resp.Reply != "Dicatat!" || !resp.ActionApplied {
		t.Errorf("resp = %+v", resp)
	}
	if len(store.transactions) != 1 {
		t.Errorf("transactions = %d, want the applied expense", len(store.transactions))
	}

	// The turn is in the history.
	rec = doRequest(t, router, http.MethodGet, "/v1/chat/history", token, nil)
	var history struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Messages) != 2 {
		t.Errorf("history = %d messages, want 2", len(history.Messages))
	}
}

func TestRouter_ChatWithoutKeyReturnsGuidance(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})
	token := signToken(t, "u1", "")

	rec := doRequest(t, router, http.MethodPost, "/v1/chat", token, map[string]any{"message": "halo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat = %d", rec.Code)
	}
	var resp chatdomain.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != chatdomain.MsgMissingTermaiKey {
		t.Errorf("Reply = %q", resp.Reply)
	}
}

func TestRouter_SettingsStateIsMasked(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})
	token := signToken(t, "u1", "")

	rec := doRequest(t, router, http.MethodPut, "/v1/settings", token, map[string]any{"termai_key": "tk-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("tk-secret")) {
		t.Error("settings response leaked the key")
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/settings", token, nil)
	var state domain.SettingsState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.TermaiKeySet || state.GeminiKeySet {
		t.Errorf("state = %+v", state)
	}
}

func TestRouter_BuyWishlistItem(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(t, store, &stubTransport{})
	token := signToken(t, "u1", "")

	rec := doRequest(t, router, http.MethodPost, "/v1/wishlists", token, map[string]any{
		"item_name": "Sepatu lari", "estimated_cost": 750000, "priority": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	var item domain.WishlistItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/wishlists/"+item.ID+"/buy", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy = %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.BuyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Item.Status != domain.StatusCompleted || result.NewBalance != -750000 {
		t.Errorf("result = %+v", result)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/wishlists/"+item.ID+"/buy", token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second buy = %d, want 409", rec.Code)
	}
}

func TestRouter_ChatMetricsSnapshot(t *testing.T) {
	router := newTestRouter(t, newMemStore(), &stubTransport{})
	token := signToken(t, "u1", "")

	// One credential-less turn shows up in the snapshot.
	doRequest(t, router, http.MethodPost, "/v1/chat", token, map[string]any{"message": "halo"})

	rec := doRequest(t, router, http.MethodGet, "/v1/metrics/chat", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	var snap domain.ChatMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.MissingCredential != 1 || snap.TotalTurns != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}
