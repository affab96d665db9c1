package models

import (
	"time"
)

// Model is implemented by every journal entity.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the storage contract for one entity type.
//
// Get and Update report missing or soft-deleted rows as errors. List criteria keys are defined by each
// implementation; unknown keys are ignored.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

var _ Model = (*Run)(nil)
