package scraper

import (
	"strings"

	"github.com/use-agent/ozonscout/models"
)

// Sentinel values for cards that were identified but whose enrichment
// failed.
const (
	sentinelProductID   = "unknown"
	sentinelName        = "Error"
	sentinelDescription = "Failed to parse product info"
)

// reconcile merges the composer view with the data scraped from the
// card into one canonical record. It is a pure function: the same
// inputs always produce an identical record.
//
// Gating policy: for an adult-gated item the description is forced to
// the fixed interstitial text and price/image are nil no matter what
// else the payload carried; the id falls back to the title-derived one
// because the payload exposes no sku.
func reconcile(view *ProductView, relativeHref string, priceWithCard *string) models.Product {
	if view.Gated {
		return models.Product{
			ProductID:     gatedProductID(view.Title),
			ShortName:     view.Title,
			FullName:      view.Title,
			Description:   adultContentDescription,
			URL:           relativeHref,
			PriceWithCard: priceWithCard,
		}
	}

	price := view.Price + " " + view.Currency
	image := view.Image
	return models.Product{
		ProductID:     view.ID,
		ShortName:     view.Title,
		FullName:      view.Title,
		Description:   view.Description,
		URL:           relativeHref,
		Price:         &price,
		PriceWithCard: priceWithCard,
		ImageURL:      &image,
	}
}

// gatedProductID derives an id from the title's trailing whitespace
// token by stripping one rune from each end. Gated titles end in a
// bracketed article like "[12345]"; the shape is not validated, the
// transformation is applied literally even to malformed tokens.
func gatedProductID(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	r := []rune(fields[len(fields)-1])
	if len(r) < 2 {
		return ""
	}
	return string(r[1 : len(r)-1])
}

// sentinelRecord stands in for a card that was identified (link and
// name present) but whose enrichment failed. This is deliberately
// distinct from dropping the card: identity is known, so the failure is
// worth reporting. The loyalty price still comes from the card itself,
// so it survives the failed enrichment.
func sentinelRecord(relativeHref string, priceWithCard *string) models.Product {
	return models.Product{
		ProductID:     sentinelProductID,
		ShortName:     sentinelName,
		FullName:      sentinelName,
		Description:   sentinelDescription,
		URL:           relativeHref,
		PriceWithCard: priceWithCard,
	}
}
