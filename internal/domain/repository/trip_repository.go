package repository

import (
	"context"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
)

// TripRepository provides read-only access to stored trips. Persistence is
// an external collaborator; the engine never writes trips back.
type TripRepository interface {
	// FindByID retrieves a trip by its unique identifier
	FindByID(ctx context.Context, id string) (*entity.Trip, error)
}

// ExpenseRepository provides read-only access to a trip's expenses.
type ExpenseRepository interface {
	// ListByTrip retrieves all expenses recorded for a trip
	ListByTrip(ctx context.Context, tripID string) ([]entity.Expense, error)
}
