package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound = errors.New("record not found")

	ErrEmailTaken = errors.New("email already registered")
)

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
