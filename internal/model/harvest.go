package model

import "time"

// HarvestStatus represents the state of a recorded harvest.
type HarvestStatus string

const (
	HarvestStatusRunning  HarvestStatus = "running"
	HarvestStatusComplete HarvestStatus = "complete"
	HarvestStatusFailed   HarvestStatus = "failed"
)

// Harvest records one pagination pass over a single ASIN.
type Harvest struct {
	ID          string        `json:"id"`
	ASIN        string        `json:"asin"`
	Status      HarvestStatus `json:"status"`
	ReviewCount int           `json:"review_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
