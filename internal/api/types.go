package api

// ========== Alert Types ==========

// AlertRequest is the request body for POST /api/alerts and PUT /api/alerts/{id}.
// Severity is ignored on update; an update never changes an alert's dedup severity.
type AlertRequest struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title" validate:"required,max=1024"`
	Description string   `json:"description" validate:"max=8192"`
	Severity    int      `json:"severity" validate:"min=-1"`
	IPs         []string `json:"ips" validate:"omitempty,max=256,dive,required,max=64"`
}

// AlertResponse is an alert with its linked addresses flattened to strings.
type AlertResponse struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    int      `json:"severity"`
	Count       int      `json:"count"`
	IPAddresses []string `json:"ip_addresses"`
}

// ========== Feed Types ==========

// ProcessFeedResponse is the response body for POST /api/alerts/process-external-alerts-{feed}.
type ProcessFeedResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
}

// ========== Pagination Types ==========

// PaginationMeta contains pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PaginatedResponse wraps a list response with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}
