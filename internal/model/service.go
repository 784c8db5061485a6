package model

import "time"

// Service is a master catalog entry.
type Service struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	Description  string    `db:"description" json:"description"`
	AveragePrice float64   `db:"average_price" json:"averagePrice"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
