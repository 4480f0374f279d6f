package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("directory: not found")
var ErrInvalidArgument = errors.New("directory: invalid argument")

// AgentRepository resolves and creates agents.
//
// FindOrCreateByExtension must be safe under concurrent workers seeing
// the same new extension: find-then-create-or-return inside one
// transaction, backed by a UNIQUE constraint on extension.

type AgentRepository interface {
	FindOrCreateByExtension(ctx context.Context, extension, displayName string) (Agent, error)
	// FindByNameFold matches display names case-insensitively.
	FindByNameFold(ctx context.Context, name string) (Agent, error)
	GetByID(ctx context.Context, id string) (Agent, error)
}

// CompanyRepository resolves and creates companies keyed on the external
// directory id, with the same concurrency contract as agents.

type CompanyRepository interface {
	FindOrCreateByExternalID(ctx context.Context, externalID, name string) (Company, error)
	GetByID(ctx context.Context, id string) (Company, error)
}
