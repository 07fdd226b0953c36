// Package catalog reads the Immich asset catalog from PostgreSQL.
package catalog

import "github.com/google/uuid"

// Asset is one non-deleted catalog record and the file it points at
type Asset struct {
	ID   uuid.UUID `gorm:"column:id"`
	Path string    `gorm:"column:originalPath"`
}
