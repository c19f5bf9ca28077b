package model

import (
	"time"

	"gorm.io/datatypes"
)

// Exception is a failure that happened outside the request path and must be
// kept for auditing, e.g. a stats recompute that failed after the trade was stored.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "tradepulse"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "journal"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "AddTrade"

	Message string `gorm:"type:text" json:"message"`
	Stack   string `gorm:"type:text" json:"stack,omitempty"`
	Level   string `gorm:"size:20;index" json:"level"` // warn | error

	// Extra context stored as JSON (optional)
	Context datatypes.JSONMap `json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
