package models

import "go-fits-inspector/pkg/geometry"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ContainsRequest asks whether a point lies in a convex polygon
type ContainsRequest struct {
	Point    geometry.Point   `json:"point"`
	Vertices []geometry.Point `json:"vertices" binding:"required,min=3"`
	// Normalize reorders the vertices clockwise and rejects non-convex input
	Normalize bool `json:"normalize,omitempty"`
}

// ContainsResponse is the answer to a ContainsRequest
type ContainsResponse struct {
	Inside bool `json:"inside"`
}

// ResolveResponse carries a standardized object name
type ResolveResponse struct {
	Name     string `json:"name"`
	Resolved string `json:"resolved"`
}

// ExtractResponse is the metadata of an uploaded image
type ExtractResponse struct {
	Metadata          Metadata `json:"metadata"`
	ProcessingTimeSec float64  `json:"processing_time_sec"`
}
