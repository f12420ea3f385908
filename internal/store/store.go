package store

import (
	"context"

	"github.com/znz-systems/leadform/internal/models"
)

// LeadTable is the relational lead sink. It owns the id sequence.
type LeadTable interface {
	EnsureSchema(ctx context.Context) error
	InsertLead(ctx context.Context, name, email, message, createdAt string) (int64, error)
}

// LeadFile is the append-only flat-file lead sink.
type LeadFile interface {
	EnsureHeader() error
	Append(lead *models.Lead) error
}
