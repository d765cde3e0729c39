package model

// Pagination is the server-side paging block returned by paginated list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListEnvelope is the shape of every list endpoint: {success, data, total?, pagination?}.
type ListEnvelope[T any] struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       []T         `json:"data"`
	Total      *int        `json:"total,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// MutationEnvelope is the shape of every mutation: {success, message, data?}.
type MutationEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

// CountEnvelope is returned by the dashboard counter endpoints.
type CountEnvelope struct {
	Count int `json:"count"`
}

// ErrorBody is the non-2xx body; older endpoints use "error" instead of "message".
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Page is a decoded page of a server-paginated collection.
type Page[T any] struct {
	Rows       []T
	Pagination Pagination
}
