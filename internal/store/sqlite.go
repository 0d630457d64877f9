package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civiclens/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS people (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	role_hint   TEXT NOT NULL DEFAULT '',
	office_type TEXT,
	gov_level   TEXT,
	party_type  TEXT,
	state_code  TEXT,
	slug        TEXT,
	limit_score REAL,
	tier        TEXT,
	weak        INTEGER NOT NULL DEFAULT 0,
	indexed     INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS legislation (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	sponsor_hint TEXT NOT NULL DEFAULT '',
	bill_level   TEXT,
	sub_name     TEXT,
	bill_status  TEXT,
	bill_id      TEXT,
	congress     TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS web_content (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id   INTEGER NOT NULL,
	is_person  INTEGER NOT NULL,
	path       TEXT NOT NULL,
	link       TEXT NOT NULL,
	used       INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_people_slug ON people(slug);
CREATE INDEX IF NOT EXISTS idx_people_tier ON people(tier);
CREATE INDEX IF NOT EXISTS idx_legislation_bill_id ON legislation(bill_id);
CREATE INDEX IF NOT EXISTS idx_web_content_owner ON web_content(owner_id, is_person);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreatePerson(ctx context.Context, name, roleHint string) (*model.Person, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO people (name, role_hint, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, roleHint, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert person")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: person insert id")
	}
	return &model.Person{ID: id, Name: name, RoleHint: roleHint, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetPerson(ctx context.Context, id int64) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, role_hint, office_type, gov_level, party_type, state_code,
		        slug, limit_score, tier, weak, indexed, created_at, updated_at
		 FROM people WHERE id = ?`, id)
	return scanPerson(row)
}

func (s *SQLiteStore) PatchPerson(ctx context.Context, id int64, patch model.PersonPatch) error {
	if patch.IsZero() {
		return nil
	}
	var sets []string
	var args []any
	addSet := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
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
		addSet("weak", boolInt(*patch.Weak))
	}
	if patch.Indexed != nil {
		addSet("indexed", boolInt(*patch.Indexed))
	}
	addSet("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE people SET %s WHERE id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: patch person %d", id)
	}
	return checkRowsAffected(res, "person", id)
}

func (s *SQLiteStore) CreateLegislation(ctx context.Context, name, sponsorHint string) (*model.Legislation, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO legislation (name, sponsor_hint, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, sponsorHint, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert legislation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: legislation insert id")
	}
	return &model.Legislation{ID: id, Name: name, SponsorHint: sponsorHint, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetLegislation(ctx context.Context, id int64) (*model.Legislation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sponsor_hint, bill_level, sub_name, bill_status, bill_id,
		        congress, created_at, updated_at
		 FROM legislation WHERE id = ?`, id)
	return scanLegislation(row)
}

func (s *SQLiteStore) PatchLegislation(ctx context.Context, id int64, patch model.LegislationPatch) error {
	if patch.IsZero() {
		return nil
	}
	var sets []string
	var args []any
	addSet := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
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

	query := fmt.Sprintf(`UPDATE legislation SET %s WHERE id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: patch legislation %d", id)
	}
	return checkRowsAffected(res, "legislation", id)
}

func (s *SQLiteStore) CreateSourceLink(ctx context.Context, ownerID int64, isPerson bool, link string) (*model.SourceLink, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO web_content (owner_id, is_person, path, link, used, created_at)
		 VALUES (?, ?, 'pending', ?, 1, ?)`,
		ownerID, boolInt(isPerson), link, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert source link")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: source link insert id")
	}
	return &model.SourceLink{
		ID: id, OwnerID: ownerID, IsPerson: isPerson,
		Path: "pending", Link: link, Used: true, Created: now,
	}, nil
}

func (s *SQLiteStore) UpdateSourceLinkPath(ctx context.Context, id int64, path string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE web_content SET path = ? WHERE id = ?`, path, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update source link %d", id)
	}
	return checkRowsAffected(res, "source link", id)
}

// helpers

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %d", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPerson(row scannable) (*model.Person, error) {
	var p model.Person
	var office, govLevel, party, state, slug, tier sql.NullString
	var score sql.NullFloat64
	var weak, indexed int

	err := row.Scan(&p.ID, &p.Name, &p.RoleHint, &office, &govLevel, &party, &state,
		&slug, &score, &tier, &weak, &indexed, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan person")
	}

	if office.Valid {
		p.OfficeType = model.Ptr(model.OfficeType(office.String))
	}
	if govLevel.Valid {
		p.GovLevel = model.Ptr(model.GovLevel(govLevel.String))
	}
	if party.Valid {
		p.PartyType = model.Ptr(model.PartyType(party.String))
	}
	if state.Valid {
		p.StateCode = &state.String
	}
	if slug.Valid {
		p.Slug = &slug.String
	}
	if score.Valid {
		p.LimitScore = &score.Float64
	}
	if tier.Valid {
		p.Tier = model.Ptr(model.Tier(tier.String))
	}
	p.Weak = weak != 0
	p.Indexed = indexed != 0
	return &p, nil
}

func scanLegislation(row scannable) (*model.Legislation, error) {
	var l model.Legislation
	var level, subName, status, billID, congress sql.NullString

	err := row.Scan(&l.ID, &l.Name, &l.SponsorHint, &level, &subName, &status,
		&billID, &congress, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan legislation")
	}

	if level.Valid {
		l.BillLevel = model.Ptr(model.BillLevel(level.String))
	}
	if subName.Valid {
		l.SubName = &subName.String
	}
	if status.Valid {
		l.BillStatus = model.Ptr(model.BillStatus(status.String))
	}
	if billID.Valid {
		l.BillID = &billID.String
	}
	if congress.Valid {
		l.Congress = &congress.String
	}
	return &l, nil
}
