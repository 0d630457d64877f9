// Package store persists entity records. SQLite is the default backend;
// Postgres is available for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civiclens/enrich-cli/internal/model"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = eris.New("store: record not found")

// Store is the entity datastore contract. Patch operations write only the
// fields set on the patch; everything else on the row is untouched.
type Store interface {
	CreatePerson(ctx context.Context, name, roleHint string) (*model.Person, error)
	GetPerson(ctx context.Context, id int64) (*model.Person, error)
	PatchPerson(ctx context.Context, id int64, patch model.PersonPatch) error

	CreateLegislation(ctx context.Context, name, sponsorHint string) (*model.Legislation, error)
	GetLegislation(ctx context.Context, id int64) (*model.Legislation, error)
	PatchLegislation(ctx context.Context, id int64, patch model.LegislationPatch) error

	CreateSourceLink(ctx context.Context, ownerID int64, isPerson bool, link string) (*model.SourceLink, error)
	UpdateSourceLinkPath(ctx context.Context, id int64, path string) error

	Migrate(ctx context.Context) error
	Close() error
}
