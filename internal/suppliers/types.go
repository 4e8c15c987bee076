package suppliers

import "time"

// Source records how a supplier entered the directory.
type Source string

const (
	SourceManual      Source = "manual"
	SourceAIDiscovery Source = "ai_discovery"
	SourceQuote       Source = "quote"
)

// Supplier is a company that can be asked for quotes.
type Supplier struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Website      string    `json:"website"`
	Region       string    `json:"region"`
	Capabilities []string  `json:"capabilities"`
	Source       Source    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Match is a supplier ranked against an RFQ.
type Match struct {
	Supplier Supplier `json:"supplier"`
	Score    float32  `json:"score"`
}
