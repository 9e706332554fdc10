package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// WaiterCallStatus enumerates the lifecycle of a service request.
type WaiterCallStatus string

const (
	WaiterCallPending  WaiterCallStatus = "pending"
	WaiterCallResolved WaiterCallStatus = "resolved"
)

// WaiterCall is a table-initiated request for staff attention. At most one
// pending call may exist per table; a resolved call is never re-opened.
type WaiterCall struct {
	bun.BaseModel `bun:"table:waiter_calls,alias:wc"`

	ID              int64            `bun:",pk,autoincrement"`
	EstablishmentID int64            `bun:"establishment_id,notnull"`
	TableID         int64            `bun:"table_id,notnull"`
	Status          WaiterCallStatus `bun:"status,notnull"`
	CreatedAt       time.Time        `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	ResolvedAt      *time.Time       `bun:"resolved_at,nullzero"`

	Table *Table `bun:"rel:belongs-to,join:table_id=id"`
}
