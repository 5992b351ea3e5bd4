package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// DatabaseStore keeps leads in PostgreSQL through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open gorm connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) SaveLead(ctx context.Context, lead *models.Lead) error {
	if lead.Phone == "" {
		return ErrInvalidLead
	}
	if lead.Reference == "" {
		lead.Reference = uuid.NewString()
	}
	if err := d.db.WithContext(ctx).Create(lead).Error; err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}

func (d *DatabaseStore) ListLeads(ctx context.Context, limit int) ([]*models.Lead, error) {
	var leads []*models.Lead
	q := d.db.WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (d *DatabaseStore) CountLeads(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&models.Lead{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DatabaseStore) Name() string { return "PostgreSQL" }
