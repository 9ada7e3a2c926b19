package models

// Product is the canonical record produced for one search result card.
// It is built once during pipeline execution by merging the card's
// visible DOM data with the composer-API payload, and is never mutated
// after construction.
//
// ProductID, ShortName, FullName, Description and URL are always
// non-empty; Price, PriceWithCard and ImageURL are independently
// optional (nil when the source carries no value).
type Product struct {
	// ProductID is the SKU from the composer payload, or for
	// adult-gated items an id derived from the title's trailing token.
	ProductID string `json:"product_id"`

	// ShortName and FullName both carry the composer page title.
	// The search page exposes no separate short title, so they are
	// identical by construction.
	ShortName string `json:"short_name"`
	FullName  string `json:"full_name"`

	Description string `json:"description"`

	// URL is the product's relative path as found in the card link.
	// The API facade rewrites it to an absolute product URL.
	URL string `json:"url"`

	// Price is "<amount> <currency>"; nil for gated items and for
	// cards whose enrichment failed.
	Price *string `json:"price"`

	// PriceWithCard is the loyalty-program price scraped directly from
	// the card markup; the composer payload never carries it.
	PriceWithCard *string `json:"price_with_card"`

	ImageURL *string `json:"image_url"`
}
