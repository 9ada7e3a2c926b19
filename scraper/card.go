package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

// extractCard turns one card element into a product record.
//
// Outcomes, in order of confidence:
//   - (record, nil): the card was identified and enriched, or
//     identified with failed enrichment (sentinel record).
//   - (nil, nil): the card has no usable link or name. Such a card
//     carries no reliable identity and is silently dropped.
//   - (nil, err): the DOM driver itself failed; the pipeline logs the
//     error and skips the card.
func extractCard(ctx context.Context, card Card, details detailFetcher, cfg config.ScraperConfig) (*models.Product, error) {
	link, err := card.Find(cfg.CardLinkSelector)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}
	href, err := link.Attr("href")
	if err != nil {
		return nil, err
	}
	if href == nil || *href == "" {
		return nil, nil
	}

	nameEl, err := card.Find(cfg.CardNameSelector)
	if err != nil {
		return nil, err
	}
	if nameEl == nil {
		return nil, nil
	}
	name, err := nameEl.Text()
	if err != nil {
		return nil, err
	}
	// The page URL is base+href; the composer API takes the bare href.
	slog.Debug("card identified", "name", name, "url", cfg.URLBase+*href)

	// The loyalty price is optional; the composer payload never
	// carries it, so the card is its only source.
	var priceWithCard *string
	priceEl, err := card.Find(cfg.CardPriceSelect)
	if err != nil {
		return nil, err
	}
	if priceEl != nil {
		text, textErr := priceEl.Text()
		if textErr != nil {
			return nil, textErr
		}
		priceWithCard = &text
	}

	view, err := details.FetchProduct(ctx, *href)
	if err != nil {
		slog.Warn("product enrichment failed", "href", *href, "error", err)
		rec := sentinelRecord(*href, priceWithCard)
		return &rec, nil
	}

	rec := reconcile(view, *href, priceWithCard)
	return &rec, nil
}
