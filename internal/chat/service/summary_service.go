package service

import (
	"context"
	"errors"
	"strings"
	"time"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	chatport "github.com/wangku-app/wangku-api/internal/chat/port"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Summary service — one-shot financial summary via Gemini
// ============================================================

// SummaryService produces the HTML financial summary shown on the
// dashboard. Unlike chat it is stateless: every call is a fresh
// prompt with no conversation id.
type SummaryService struct {
	summarizer   chatport.Summarizer
	settings     chatport.SettingsSource
	profiles     port.ProfileStore
	transactions port.TransactionStore
	wishlists    port.WishlistStore
	metrics      *observability.Metrics
	logger       *zap.Logger
	contextLimit int
}

func NewSummaryService(
	summarizer chatport.Summarizer,
	settings chatport.SettingsSource,
	profiles port.ProfileStore,
	transactions port.TransactionStore,
	wishlists port.WishlistStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	contextLimit int,
) *SummaryService {
	if contextLimit <= 0 {
		contextLimit = 10
	}
	return &SummaryService{
		summarizer:   summarizer,
		settings:     settings,
		profiles:     profiles,
		transactions: transactions,
		wishlists:    wishlists,
		metrics:      metrics,
		logger:       logger,
		contextLimit: contextLimit,
	}
}

// stripCodeFence removes a leading ```html fence and trailing ```
// when the model wraps its output despite instructions.
func stripCodeFence(html string) string {
	html = strings.Replace(html, "```html\n", "", 1)
	html = strings.ReplaceAll(html, "\n```", "")
	return strings.TrimSpace(html)
}

// Generate builds the summary-mode snapshot, prompts the model and
// returns the cleaned HTML fragment. Missing credentials and
// provider failures degrade to fixed HTML guidance rather than
// errors, so the dashboard always has something to render.
func (s *SummaryService) Generate(ctx context.Context, userID string) (*chatdomain.SummaryResponse, error) {
	ctx, span := chatTracer.Start(ctx, "SummaryService.Generate")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("summary", time.Since(start))
	}()

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings.GeminiKey == "" {
		return &chatdomain.SummaryResponse{HTML: chatdomain.MsgSummaryMissingKey}, nil
	}

	snap := &chatdomain.FinancialSnapshot{}
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
		return nil, err
	}

	prompt := BuildSummaryPrompt(BuildContext(snap, chatdomain.ModeSummary))
	html, err := s.summarizer.GenerateContent(ctx, prompt, settings.GeminiKey)
	if err != nil {
		s.logger.Warn("summary generation failed", zap.String("user_id", userID), zap.Error(err))
		return &chatdomain.SummaryResponse{HTML: chatdomain.MsgSummaryAPIError}, nil
	}

	return &chatdomain.SummaryResponse{HTML: stripCodeFence(html)}, nil
}
