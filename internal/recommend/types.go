// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package recommend

import (
	"context"
	"time"
)

// EventType classifies an interaction event.
type EventType string

// Interaction event types with their default weights.
const (
	EventView     EventType = "view"
	EventCart     EventType = "cart"
	EventPurchase EventType = "purchase"
	EventRating   EventType = "rating"
)

// DefaultWeight returns the implicit-feedback weight for an event type.
// Rating events carry the rating value as their weight instead.
func (e EventType) DefaultWeight() float64 {
	switch e {
	case EventView:
		return 1.0
	case EventCart:
		return 2.0
	case EventPurchase:
		return 3.0
	default:
		return 1.0
	}
}

// Interaction is a single user-product interaction event.
type Interaction struct {
	UserID     int
	ProductID  int
	Type       EventType
	Weight     float64
	OccurredAt time.Time
}

// Product is a catalog entry used for content similarity and responses.
type Product struct {
	ID         int
	Name       string
	Category   string
	Tags       []string
	Price      float64
	Stock      int
	Popularity float64
	Active     bool
}

// Recommendation is a single scored product recommendation.
type Recommendation struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason,omitempty"`
}

// UserRequest holds parameters for user recommendations.
type UserRequest struct {
	UserID         int
	Limit          int
	IncludeReasons bool
}

// Result is a recommendation list with model provenance.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	ModelVersion    int              `json:"model_version"`
	GeneratedAt     time.Time        `json:"generated_at"`
	// Fallback is set when the popularity fallback served the request.
	Fallback bool `json:"fallback,omitempty"`
}

// Status reports the engine's training state.
type Status struct {
	State         string    `json:"state"`
	ModelVersion  int       `json:"model_version"`
	LastTrainedAt time.Time `json:"last_trained_at,omitempty"`
	Products      int       `json:"products"`
	Interactions  int       `json:"interactions"`
}

// DataProvider supplies training data to the engine. Implemented by
// the store package.
type DataProvider interface {
	// GetInteractions returns interaction events since the given time.
	GetInteractions(ctx context.Context, since time.Time) ([]Interaction, error)

	// GetProducts returns the active product catalog.
	GetProducts(ctx context.Context) ([]Product, error)
}
