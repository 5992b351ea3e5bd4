package storage

import (
	"context"
	"errors"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// ErrInvalidLead is returned when a lead lacks the sender phone.
var ErrInvalidLead = errors.New("lead phone is required")

// Store defines the interface for lead ledger operations
type Store interface {
	// SaveLead persists a lead, assigning Reference when empty.
	SaveLead(ctx context.Context, lead *models.Lead) error
	// ListLeads returns the most recent leads first. limit <= 0 means all.
	ListLeads(ctx context.Context, limit int) ([]*models.Lead, error)
	// CountLeads returns the number of stored leads.
	CountLeads(ctx context.Context) (int64, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Name describes the backend for health output.
	Name() string
}
