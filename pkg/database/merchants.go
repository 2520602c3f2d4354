package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"merchant-chat-api/pkg/models"
)

const merchantByIDQuery = `
SELECT merchant_id::text AS merchant_id,
       COALESCE(merchant_name, '') AS merchant_name,
       password_hash
FROM merchants
WHERE merchant_id::text = $1`

// MerchantRepository reads merchants by primary key
type MerchantRepository struct {
	db *sqlx.DB
}

// NewMerchantRepository creates a MerchantRepository
func NewMerchantRepository(db *sqlx.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// GetByID returns models.ErrNotFound when no merchant has the id
func (r *MerchantRepository) GetByID(ctx context.Context, merchantID string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.GetContext(ctx, &m, merchantByIDQuery, merchantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: merchant lookup: %v", models.ErrDataAccess, err)
	}
	return &m, nil
}
