package invoice

import "time"

// Item represents a single line item recovered from an invoice document
type Item struct {
	LineNumber       int     `json:"line_number"`
	QuantityOrdered  float64 `json:"quantity_ordered"`
	PartID           string  `json:"part_id"`
	Description      string  `json:"description"`
	NetUnitPrice     float64 `json:"net_unit_price"`
	NetExtendedPrice float64 `json:"net_extended_price"`
}

// Invoice represents a processed invoice document with its extracted items
type Invoice struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
