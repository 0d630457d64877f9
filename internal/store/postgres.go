package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civiclens/enrich-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS people (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	role_hint   TEXT NOT NULL DEFAULT '',
	office_type TEXT,
	gov_level   TEXT,
	party_type  TEXT,
	state_code  TEXT,
	slug        TEXT,
	limit_score DOUBLE PRECISION,
	tier        TEXT,
	weak        BOOLEAN NOT NULL DEFAULT false,
	indexed     BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS legislation (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL,
	sponsor_hint TEXT NOT NULL DEFAULT '',
	bill_level   TEXT,
	sub_name     TEXT,
	bill_status  TEXT,
	bill_id      TEXT,
	congress     TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS web_content (
	id         BIGSERIAL PRIMARY KEY,
	owner_id   BIGINT NOT NULL,
	is_person  BOOLEAN NOT NULL,
	path       TEXT NOT NULL,
	link       TEXT NOT NULL,
	used       BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_people_slug ON people(slug);
CREATE INDEX IF NOT EXISTS idx_people_tier ON people(tier);
CREATE INDEX IF NOT EXISTS idx_legislation_bill_id ON legislation(bill_id);
CREATE INDEX IF NOT EXISTS idx_web_content_owner ON web_content(owner_id, is_person);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, name, roleHint string) (*model.Person, error) {
	var p model.Person
	err := s.pool.QueryRow(ctx,
		`INSERT INTO people (name, role_hint) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		name, roleHint,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert person")
	}
	p.Name = name
	p.RoleHint = roleHint
	return &p, nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id int64) (*model.Person, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, role_hint, office_type, gov_level, party_type, state_code,
		        slug, limit_score, tier, weak, indexed, created_at, updated_at
		 FROM people WHERE id = $1`, id)
	p, err := scanPersonPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) PatchPerson(ctx context.Context, id int64, patch model.PersonPatch) error {
	if patch.IsZero() {
		return nil
	}
	var sets []string
	var args []any
	addSet := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.OfficeType != nil {
		addSet("office_type", string(*patch.OfficeType))
	}
	if patch.GovLevel != nil {
		addSet("gov_level", string(*patch.GovLevel))
	}
	if patch.PartyType != nil {
		addSet("party_type", string(*patch.PartyType))
	}
	if patch.StateCode != nil {
		addSet("state_code", *patch.StateCode)
	}
	if patch.Slug != nil {
		addSet("slug", *patch.Slug)
	}
	if patch.LimitScore != nil {
		addSet("limit_score", *patch.LimitScore)
	}
	if patch.Tier != nil {
		addSet("tier", string(*patch.Tier))
	}
	if patch.Weak != nil {
		addSet("weak", *patch.Weak)
	}
	if patch.Indexed != nil {
		addSet("indexed", *patch.Indexed)
	}
	addSet("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE people SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: patch person %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "person %d", id)
	}
	return nil
}

func (s *PostgresStore) CreateLegislation(ctx context.Context, name, sponsorHint string) (*model.Legislation, error) {
	var l model.Legislation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO legislation (name, sponsor_hint) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		name, sponsorHint,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert legislation")
	}
	l.Name = name
	l.SponsorHint = sponsorHint
	return &l, nil
}

func (s *PostgresStore) GetLegislation(ctx context.Context, id int64) (*model.Legislation, error) {
	var l model.Legislation
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, sponsor_hint, bill_level, sub_name, bill_status, bill_id,
		        congress, created_at, updated_at
		 FROM legislation WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.SponsorHint, &l.BillLevel, &l.SubName, &l.BillStatus,
		&l.BillID, &l.Congress, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get legislation %d", id)
	}
	return &l, nil
}

func (s *PostgresStore) PatchLegislation(ctx context.Context, id int64, patch model.LegislationPatch) error {
	if patch.IsZero() {
		return nil
	}
	var sets []string
	var args []any
	addSet := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.BillLevel != nil {
		addSet("bill_level", string(*patch.BillLevel))
	}
	if patch.SubName != nil {
		addSet("sub_name", *patch.SubName)
	}
	if patch.BillStatus != nil {
		addSet("bill_status", string(*patch.BillStatus))
	}
	if patch.BillID != nil {
		addSet("bill_id", *patch.BillID)
	}
	if patch.Congress != nil {
		addSet("congress", *patch.Congress)
	}
	addSet("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE legislation SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: patch legislation %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "legislation %d", id)
	}
	return nil
}

func (s *PostgresStore) CreateSourceLink(ctx context.Context, ownerID int64, isPerson bool, link string) (*model.SourceLink, error) {
	sl := model.SourceLink{OwnerID: ownerID, IsPerson: isPerson, Path: "pending", Link: link, Used: true}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO web_content (owner_id, is_person, path, link, used)
		 VALUES ($1, $2, 'pending', $3, true)
		 RETURNING id, created_at`,
		ownerID, isPerson, link,
	).Scan(&sl.ID, &sl.Created)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert source link")
	}
	return &sl, nil
}

func (s *PostgresStore) UpdateSourceLinkPath(ctx context.Context, id int64, path string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE web_content SET path = $1 WHERE id = $2`, path, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update source link %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "source link %d", id)
	}
	return nil
}

func scanPersonPG(row pgx.Row) (*model.Person, error) {
	var p model.Person
	err := row.Scan(&p.ID, &p.Name, &p.RoleHint, &p.OfficeType, &p.GovLevel,
		&p.PartyType, &p.StateCode, &p.Slug, &p.LimitScore, &p.Tier,
		&p.Weak, &p.Indexed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
