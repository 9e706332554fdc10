package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// TableStatus enumerates the floor states of a table.
type TableStatus string

const (
	TableFree        TableStatus = "free"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

// Valid reports whether s is a known table status.
func (s TableStatus) Valid() bool {
	switch s {
	case TableFree, TableOccupied, TableReserved, TableMaintenance:
		return true
	}
	return false
}

// Table is a physical table owned by one establishment. The number is unique
// per establishment, not globally.
type Table struct {
	bun.BaseModel `bun:"table:tables,alias:tbl"`

	ID              int64       `bun:",pk,autoincrement"`
	EstablishmentID int64       `bun:"establishment_id,notnull"`
	Number          string      `bun:"number,notnull"`
	Capacity        int         `bun:"capacity,notnull"`
	Status          TableStatus `bun:"status,notnull"`
	Description     string      `bun:"description,nullzero"`
	CreatedAt       time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time   `bun:"updated_at,nullzero"`
}
