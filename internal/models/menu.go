package models

import "time"

// MenuItem represents a dish available for ordering.
// Price is stored in the smallest currency unit.
type MenuItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Price         int64      `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	Category      string     `json:"category,omitempty"`
	DietaryTags   []string   `json:"dietary_tags,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	AvailableDate *time.Time `json:"available_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// MenuFilter narrows a menu listing. DietaryTags matches items carrying
// every listed tag.
type MenuFilter struct {
	Category      string
	DietaryTags   []string
	AvailableDate *time.Time
}
