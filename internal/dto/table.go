package dto

import "time"

// TableResponse represents a dining table.
type TableResponse struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WaiterCallResponse represents an assistance request.
type WaiterCallResponse struct {
	ID          int64      `json:"id"`
	TableID     int64      `json:"table_id"`
	TableNumber string     `json:"table_number,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}
