package model

import "time"

// Report summarizes one parse run
type Report struct {
	RunID       string    `json:"run_id"`
	Document    string    `json:"document"`
	GeneratedAt time.Time `json:"generated_at"`
	Pages       int       `json:"pages"`      // Pages processed
	Anchors     int       `json:"anchors"`    // Anchors discovered, one record each
	Incomplete  int       `json:"incomplete"` // Records with at least one missing required field
	Sampled     int       `json:"sampled"`    // Records surfaced to the inspection channel
}

// CardResult is the outcome of looking up one parcel identifier
type CardResult struct {
	PIN    string              `json:"pin"`
	Tokens []string            `json:"tokens,omitempty"` // Search result tokens, one card each
	Cards  []map[string]string `json:"cards,omitempty"`
	Error  error               `json:"-"`
}

// GetError returns the lookup error, if any
func (r *CardResult) GetError() error {
	return r.Error
}
