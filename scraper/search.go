package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

// runSearch drives one search page end to end. The sequence is strictly
// linear with no back-edges:
//
//	navigate → pause → reload+idle → scroll → enumerate → extract
//
// Only the steps before cards exist are fatal; from enumeration on,
// every per-card failure is contained so one bad card never aborts the
// batch.
func runSearch(ctx context.Context, drv driver, details detailFetcher, cfg config.ScraperConfig, searchURL string) ([]models.Product, error) {
	// ── 1. Navigate ─────────────────────────────────────────────────
	if err := drv.Open(ctx, searchURL); err != nil {
		return nil, err
	}

	// ── 2. Settle pause ─────────────────────────────────────────────
	// Give the client-side renderer a head start before the forced
	// reload. Heuristic, not a guarantee.
	select {
	case <-time.After(cfg.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// ── 3. Reload + wait for network idle ───────────────────────────
	if err := drv.Settle(ctx); err != nil {
		return nil, err
	}

	// ── 4. Scroll to trigger lazy-loaded cards ──────────────────────
	if err := drv.Scroll(ctx, cfg.ScrollDepth, cfg.ScrollStep, cfg.ScrollDelay); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "scroll sequence failed", err)
	}

	// ── 5. Enumerate cards, capped from the start of DOM order ──────
	cards, err := drv.Cards(ctx, cfg.CardSelector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "card enumeration failed", err)
	}
	if cfg.CardLimit >= 0 && len(cards) > cfg.CardLimit {
		cards = cards[:cfg.CardLimit]
	}
	slog.Info("cards enumerated", "count", len(cards), "limit", cfg.CardLimit)

	// ── 6. Extract sequentially ─────────────────────────────────────
	// One card's enrichment completes before the next card starts;
	// there is deliberately no intra-search parallelism.
	results := make([]models.Product, 0, len(cards))
	for i, card := range cards {
		rec, extractErr := extractCard(ctx, card, details, cfg)
		if extractErr != nil {
			if ctx.Err() != nil {
				return nil, models.NewScrapeError(models.ErrCodeNavigation, "search deadline exceeded", ctx.Err())
			}
			slog.Warn("card extraction failed, skipping card", "index", i, "error", extractErr)
			continue
		}
		if rec == nil {
			slog.Debug("card dropped: no link or name", "index", i)
			continue
		}
		results = append(results, *rec)
	}

	slog.Info("search completed", "cards", len(cards), "records", len(results))
	return results, nil
}
