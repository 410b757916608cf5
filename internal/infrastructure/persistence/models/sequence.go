package models

import (
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SequenceCounterModel is one counter row per tenant, kind and year.
// The row is locked FOR UPDATE while a number is drawn, so concurrent
// drawers serialize instead of reading the same value.
type SequenceCounterModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_scope,priority:1"`
	Kind      shared.SequenceKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_sequence_scope,priority:2"`
	Year      int                 `gorm:"not null;uniqueIndex:idx_sequence_scope,priority:3"`
	LastValue int64               `gorm:"not null;default:0"`
	CreatedAt time.Time           `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}
