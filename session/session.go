// Package session keeps the last advisory of each browser session so the
// answer survives a page refresh.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is what one browser session remembers.
type Record struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Pincode   string    `json:"pincode"`
	Answer    string    `json:"answer"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord creates an empty record with a fresh random ID.
func NewRecord() *Record {
	return &Record{ID: NewID(), UpdatedAt: time.Now()}
}

// NewID returns a random session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Store persists records. Load fails with errors.ErrNotFound for unknown or
// expired IDs.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
