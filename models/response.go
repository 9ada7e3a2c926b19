package models

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	Results []Product `json:"results"`
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
