package model

// Candidate is one address returned by the lookup service for a postal code
type Candidate struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	County  string `json:"county,omitempty"`
	Country string `json:"country"`
}

// AutofillResult is what the shipping form shows for the postal box
type AutofillResult struct {
	// Value is the normalized postal code the candidates belong to
	Value      string      `json:"value"`
	Candidates []Candidate `json:"candidates"`
	// Pending is true while a lookup is debouncing, in flight or queued
	Pending bool   `json:"pending"`
	Error   string `json:"error,omitempty"`
}

type InputRequest struct {
	Postal string `json:"postal"`
}
