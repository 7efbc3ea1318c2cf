// Package flags provides the experiment feature toggles: named switches
// with an enabled bit, a percentage rollout, and an optional JSON Logic
// audience expression. Unknown flags evaluate to disabled.
package flags

import (
	"context"
	"errors"
	"time"
)

// Flag names used by the experiments metadata pipeline.
const (
	// FlagAddPrograms gates adding the current course's program
	// information to user metadata.
	FlagAddPrograms = "experiments.add_programs"
	// FlagAddProgramPrice gates adding program price and SKU information
	// to user metadata. Only consulted when FlagAddPrograms is on.
	FlagAddProgramPrice = "experiments.add_program_price"
)

// ErrNotFound is returned when a flag does not exist in the store.
var ErrNotFound = errors.New("flag not found")

// ErrInvalidRollout is returned when the rollout percentage is outside 0-100.
var ErrInvalidRollout = errors.New("rollout must be between 0 and 100")

// Flag is a feature toggle.
type Flag struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Rollout     int32     `json:"rollout"`
	Audience    *string   `json:"audience,omitempty"` // JSON Logic expression
	Env         string    `json:"env"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpsertParams contains the parameters for upserting a flag.
type UpsertParams struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Enabled     bool    `json:"enabled"`
	Rollout     int32   `json:"rollout"`
	Audience    *string `json:"audience,omitempty"`
	Env         string  `json:"env"`
}

// Store defines the interface for flag persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a flag by name. Returns ErrNotFound if absent.
	Get(ctx context.Context, name string) (*Flag, error)

	// List retrieves all flags for the given environment.
	List(ctx context.Context, env string) ([]Flag, error)

	// Upsert creates or updates a flag, keyed on name.
	Upsert(ctx context.Context, params UpsertParams) error

	// Close releases any resources held by the store.
	Close() error
}
