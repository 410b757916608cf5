package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/construct/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceGenerator implements SequenceGenerator on a counter row
// per tenant, kind and year. The row is locked FOR UPDATE before the
// increment, so concurrent drawers serialize and no two of them ever
// read the same value. Because the generator runs on the caller's
// transaction handle, an aborted insert rolls the increment back with
// it and the sequence stays gapless.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next draws the next reference code for the tenant, kind and current year
func (g *GormSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, kind shared.SequenceKind) (string, error) {
	if !kind.IsValid() {
		return "", shared.NewDomainError("INVALID_SEQUENCE_KIND", "Sequence kind is not valid")
	}
	year := time.Now().UTC().Year()

	counter, err := g.lockCounter(ctx, tenantID, kind, year)
	if err != nil {
		return "", err
	}

	counter.LastValue++
	if err := g.db.WithContext(ctx).Model(&models.SequenceCounterModel{}).
		Where("id = ?", counter.ID).
		Update("last_value", counter.LastValue).Error; err != nil {
		return "", err
	}

	return shared.FormatNumber(kind, year, counter.LastValue), nil
}

// lockCounter loads the counter row under a FOR UPDATE lock, creating
// it on first use. The insert tolerates a concurrent creator via ON
// CONFLICT DO NOTHING and re-reads under the lock.
func (g *GormSequenceGenerator) lockCounter(ctx context.Context, tenantID uuid.UUID, kind shared.SequenceKind, year int) (*models.SequenceCounterModel, error) {
	var counter models.SequenceCounterModel
	err := g.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND kind = ? AND year = ?", tenantID, kind, year).
		First(&counter).Error
	if err == nil {
		return &counter, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := models.SequenceCounterModel{
		ID:       uuid.New(),
		TenantID: tenantID,
		Kind:     kind,
		Year:     year,
	}
	if err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return nil, err
	}

	if err := g.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND kind = ? AND year = ?", tenantID, kind, year).
		First(&counter).Error; err != nil {
		return nil, err
	}
	return &counter, nil
}

// Ensure GormSequenceGenerator implements SequenceGenerator
var _ shared.SequenceGenerator = (*GormSequenceGenerator)(nil)
