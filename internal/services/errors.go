package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sari-backend/internal/repositories"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientStock  = repositories.ErrOutOfStock
	ErrCustomerRequired   = errors.New("a customer is required for utang")
	ErrInvalidSale        = errors.New("invalid sale")
	ErrCustomerHasUtang   = errors.New("customer still has unpaid utang")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is disabled")
	ErrEmailTaken         = errors.New("email already in use")
)

// notFound maps a missing row to ErrNotFound, naming the entity
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// checkID rejects ids that are not UUIDs before they reach Postgres
func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
