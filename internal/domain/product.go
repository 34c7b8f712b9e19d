package domain

import (
	"time"
)

// Product is a marketplace product the system tracks reviews for. ProductID is
// the marketplace-specific identifier (e.g. an ASIN) and is only unique within
// a Platform.
type Product struct {
	ID           string    `json:"id"`
	Platform     string    `json:"platform"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ReviewCount  int       `json:"review_count"`
	LastImported time.Time `json:"last_imported"`
}
