// Package service implements the chat pipeline.
//
// ============================================================
// ARCHITECTURE — one chat turn, end to end
// ============================================================
//
// A turn through POST /v1/chat runs these stages in order:
//
//  1. Credential gate: without a TerMai key the turn short-circuits
//     with fixed guidance and the provider is never called.
//  2. Snapshot: profile, recent and upcoming transactions and the
//     wishlist are fetched concurrently, fresh for every turn.
//  3. Prompt: the snapshot is rendered as an Indonesian context
//     block and embedded in the assistant persona.
//  4. Transport: a single, non-retried call to TerMai.
//  5. Resolver: the loosely-shaped payload becomes reply text, an
//     empty-success marker, or a failure message.
//  6. Action: a trailing @@ACTION tag is extracted, validated and
//     applied through the regular finance write paths.
//  7. History: the user message and the final reply are appended
//     to the chat log.
//
// Transport failures, in-band failures and empty successes all
// still produce a reply for the user; only the wording differs.
// Actions are attempted exclusively on resolved content.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	chatport "github.com/wangku-app/wangku-api/internal/chat/port"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/infra/resilience"
	"github.com/wangku-app/wangku-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var chatTracer = otel.Tracer("chat/service")

// ChatService orchestrates chat turns, conversation resets and
// history reads.
type ChatService struct {
	transport    chatport.ChatTransport
	settings     chatport.SettingsSource
	applier      chatport.ActionApplier
	profiles     port.ProfileStore
	transactions port.TransactionStore
	wishlists    port.WishlistStore
	chatlog      port.ChatLogStore

	bulkhead     *resilience.Bulkhead
	metrics      *observability.Metrics
	logger       *zap.Logger
	contextLimit int
}

func NewChatService(
	transport chatport.ChatTransport,
	settings chatport.SettingsSource,
	applier chatport.ActionApplier,
	profiles port.ProfileStore,
	transactions port.TransactionStore,
	wishlists port.WishlistStore,
	chatlog port.ChatLogStore,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
	contextLimit int,
) *ChatService {
	if contextLimit <= 0 {
		contextLimit = 10
	}
	return &ChatService{
		transport:    transport,
		settings:     settings,
		applier:      applier,
		profiles:     profiles,
		transactions: transactions,
		wishlists:    wishlists,
		chatlog:      chatlog,
		bulkhead:     bulkhead,
		metrics:      metrics,
		logger:       logger,
		contextLimit: contextLimit,
	}
}

// assembleSnapshot fetches the user's financial state concurrently.
// Recent transactions come newest first, upcoming ones soonest
// first, the wishlist by ascending priority.
func (s *ChatService) assembleSnapshot(ctx context.Context, userID string) (*chatdomain.FinancialSnapshot, string, error) {
	snap := &chatdomain.FinancialSnapshot{}
	var profileName string

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		profile, err := s.profiles.GetProfile(gCtx, userID)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
		snap.Balance = profile.CurrentBalance
		profileName = profile.Name
		return nil
	})
	g.Go(func() error {
		txs, err := s.transactions.ListTransactionsByStatus(gCtx, userID, domain.StatusCompleted, "date.desc", s.contextLimit)
		if err != nil {
			return err
		}
		snap.Recent = txs
		return nil
	})
	g.Go(func() error {
		txs, err := s.transactions.ListTransactionsByStatus(gCtx, userID, domain.StatusPending, "date.asc", s.contextLimit)
		if err != nil {
			return err
		}
		snap.Upcoming = txs
		return nil
	})
	g.Go(func() error {
		items, err := s.wishlists.ListWishlists(gCtx, userID, s.contextLimit)
		if err != nil {
			return err
		}
		snap.Wishlists = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return snap, profileName, nil
}

// ProcessTurn runs one full chat turn for the user. email is used
// as a fallback source for the sender name when the profile has
// none. The returned response always carries displayable reply
// text; an error is returned only for infrastructure problems that
// prevent producing any reply at all.
func (s *ChatService) ProcessTurn(ctx context.Context, userID, email string, req *chatdomain.ChatRequest) (*chatdomain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessTurn")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat_turn", time.Since(start))
	}()

	s.appendLog(ctx, userID, domain.RoleUser, req.Message)

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings.TermaiKey == "" {
		s.metrics.IncrChatTurn(observability.TurnNoCredential)
		resp := &chatdomain.ChatResponse{Reply: chatdomain.MsgMissingTermaiKey}
		s.appendLog(ctx, userID, domain.RoleAssistant, resp.Reply)
		return resp, nil
	}

	snap, profileName, err := s.assembleSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = userID
	}
	senderName := ResolveSenderName(profileName, email)
	contextText := BuildContext(snap, chatdomain.ModeChat)
	payload := BuildChatPayload(req.Message, conversationID, senderName, contextText, time.Now())

	raw, err := s.transport.Send(ctx, payload, settings.TermaiKey)
	if err != nil {
		reply := s.describeTransportError(err)
		s.metrics.IncrChatTurn(observability.TurnTransportFailed)
		s.logger.Warn("chat transport failed", zap.String("user_id", userID), zap.Error(err))
		s.appendLog(ctx, userID, domain.RoleAssistant, reply)
		return &chatdomain.ChatResponse{Reply: reply}, nil
	}

	outcome := Resolve(raw)
	resp := &chatdomain.ChatResponse{}

	switch outcome.Kind {
	case chatdomain.OutcomeFailure:
		s.metrics.IncrChatTurn(observability.TurnFailed)
		resp.Reply = fmt.Sprintf("Gagal: %s", outcome.Detail)

	case chatdomain.OutcomeEmpty:
		s.metrics.IncrChatTurn(observability.TurnEmpty)
		resp.Reply = chatdomain.MsgEmptySuccess

	case chatdomain.OutcomeContent:
		s.metrics.IncrChatTurn(observability.TurnReplied)
		clean, instr, actionErr := ExtractAction(outcome.Text)
		resp.Reply = clean
		switch {
		case actionErr != nil:
			s.metrics.IncrChatAction("unknown", observability.ActionInvalid)
			s.logger.Warn("dropped invalid chat action",
				zap.String("user_id", userID),
				zap.Error(actionErr),
			)
		case instr != nil:
			resp.ActionType = instr.Type
			if err := s.applier.ApplyAction(ctx, userID, instr); err != nil {
				s.metrics.IncrChatAction(instr.Type, observability.ActionApplyFailed)
				s.logger.Error("chat action apply failed",
					zap.String("user_id", userID),
					zap.String("action", instr.Type),
					zap.Error(err),
				)
				resp.ActionError = err.Error()
			} else {
				s.metrics.IncrChatAction(instr.Type, observability.ActionApplied)
				resp.ActionApplied = true
			}
		}
	}

	s.appendLog(ctx, userID, domain.RoleAssistant, resp.Reply)
	return resp, nil
}

// describeTransportError maps transport-level failures onto the
// fixed connectivity message, keeping the raw payload visible when
// the provider answered with something undecodable.
func (s *ChatService) describeTransportError(err error) string {
	var malformed *chatdomain.MalformedResponseError
	if errors.As(err, &malformed) {
		return fmt.Sprintf("Terjadi kesalahan respon dari AI: %s", malformed.Raw)
	}
	return chatdomain.MsgConnectivity
}

// appendLog writes a chat-log entry. Persistence failures are
// logged and swallowed so a flaky log store never breaks a turn.
func (s *ChatService) appendLog(ctx context.Context, userID, role, text string) {
	if text == "" {
		return
	}
	msg := &domain.ChatMessage{
		UserID:    userID,
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.chatlog.AppendChatMessage(ctx, msg); err != nil {
		s.logger.Warn("failed to append chat message",
			zap.String("user_id", userID),
			zap.String("role", role),
			zap.Error(err),
		)
	}
}

// Reset asks the provider to drop the server-side conversation
// state. Without a configured key there is nothing to reset.
func (s *ChatService) Reset(ctx context.Context, userID, conversationID string) (*chatdomain.ResetResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Reset")
	defer span.End()

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings.TermaiKey == "" {
		return nil, &domain.ErrConfigurationMissing{
			Service: "termai",
			Hint:    chatdomain.MsgMissingTermaiKey,
		}
	}
	if conversationID == "" {
		conversationID = userID
	}
	return s.transport.Reset(ctx, conversationID, settings.TermaiKey)
}

// History returns the user's chat log, oldest first.
func (s *ChatService) History(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	return s.chatlog.ListChatMessages(ctx, userID)
}
