// Package repository is the MySQL-backed store behind the engine, the job
// queue and the subscription endpoints.
package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the subscription or subscriber to change does
// not exist or is already inactive
var ErrNotFound = errors.New("not found")

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}
