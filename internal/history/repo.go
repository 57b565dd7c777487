package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
)

// Repository manages persistence for the customer activity feed. Append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.CustomerHistoryRecord) error
	ListByCustomerID(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.CustomerHistoryRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.CustomerHistoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListByCustomerID(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.CustomerHistoryRecord, error) {
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.CustomerHistoryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
