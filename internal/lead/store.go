package lead

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/znz-systems/leadform/internal/models"
	"github.com/znz-systems/leadform/internal/store"
)

// ErrStorage wraps any failure of either lead sink.
var ErrStorage = errors.New("lead storage failure")

// Store records each lead in the relational table and then in the flat file,
// reusing the id the table assigned. Saves are serialized so both sinks see
// rows in the same order within this process. The two writes are not atomic:
// a crash between them leaves the file one row behind the table.
type Store struct {
	table store.LeadTable
	file  store.LeadFile
	now   func() time.Time

	mu sync.Mutex
}

// NewStore creates a Store over the two sinks.
func NewStore(table store.LeadTable, file store.LeadFile) *Store {
	return &Store{
		table: table,
		file:  file,
		now:   time.Now,
	}
}

// Init ensures the table and the file header exist. It is safe to call on
// every start.
func (s *Store) Init(ctx context.Context) error {
	if err := s.table.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := s.file.EnsureHeader(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Save persists one lead and returns it with its id and timestamp.
func (s *Store) Save(ctx context.Context, name, email, message string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead := &models.Lead{
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: s.now().UTC().Format(models.TimeLayout),
	}

	id, err := s.table.InsertLead(ctx, lead.Name, lead.Email, lead.Message, lead.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	lead.ID = id

	if err := s.file.Append(lead); err != nil {
		return nil, fmt.Errorf("%w: lead %d: %w", ErrStorage, id, err)
	}
	return lead, nil
}
