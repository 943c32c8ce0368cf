package domain

import "time"

// Entity represents a domain entity with a store-issued identity.
type Entity interface {
	ID() int64
	CreatedAt() time.Time
	Equals(other Entity) bool
}

// BaseEntity provides common entity functionality.
type BaseEntity struct {
	id        int64
	createdAt time.Time
}

// NewBaseEntity creates an entity that has not been persisted yet.
// The identity stays zero until the store assigns one.
func NewBaseEntity(createdAt time.Time) BaseEntity {
	return BaseEntity{createdAt: createdAt.UTC()}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id int64, createdAt time.Time) BaseEntity {
	return BaseEntity{
		id:        id,
		createdAt: createdAt.UTC(),
	}
}

func (e BaseEntity) ID() int64            { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }

// IsTransient reports whether the entity still lacks a store-issued identity.
func (e BaseEntity) IsTransient() bool { return e.id == 0 }

// SetID stores the identity issued by the store. It only takes effect once.
func (e *BaseEntity) SetID(id int64) bool {
	if e.id != 0 || id <= 0 {
		return false
	}
	e.id = id
	return true
}

// Equals checks if two entities have the same identity.
// Transient entities are never equal to anything.
func (e BaseEntity) Equals(other Entity) bool {
	if other == nil || e.id == 0 {
		return false
	}
	return e.id == other.ID()
}
