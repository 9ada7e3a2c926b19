package models

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Query is the search text. Required.
	Query string `json:"query" binding:"required"`
}
