package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/enrich-cli/internal/model"
)

func TestPostgres_GetPerson(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "name", "role_hint", "office_type", "gov_level", "party_type",
		"state_code", "slug", "limit_score", "tier", "weak", "indexed",
		"created_at", "updated_at",
	}).AddRow(
		int64(7), "Jane Doe", "junior senator",
		model.Ptr(model.OfficeSenator), (*model.GovLevel)(nil), model.Ptr(model.PartyDemocrat),
		model.Ptr("OH"), (*string)(nil), (*float64)(nil), (*model.Tier)(nil),
		false, false, now, now,
	)
	mock.ExpectQuery(`SELECT id, name, role_hint`).WithArgs(int64(7)).WillReturnRows(rows)

	s := NewPostgresWithPool(mock)
	p, err := s.GetPerson(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Name)
	require.NotNil(t, p.OfficeType)
	assert.Equal(t, model.OfficeSenator, *p.OfficeType)
	require.NotNil(t, p.StateCode)
	assert.Equal(t, "OH", *p.StateCode)
	assert.Nil(t, p.Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PatchPersonBuildsSparseUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE people SET office_type = \$1, state_code = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("senator", "OH", pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	s := NewPostgresWithPool(mock)
	err = s.PatchPerson(context.Background(), 7, model.PersonPatch{
		OfficeType: model.Ptr(model.OfficeSenator),
		StateCode:  model.Ptr("OH"),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PatchPersonNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE people SET`).
		WithArgs(true, pgxmock.AnyArg(), int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	s := NewPostgresWithPool(mock)
	err = s.PatchPerson(context.Background(), 99, model.PersonPatch{Weak: model.Ptr(true)})
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SourceLink(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO web_content`).
		WithArgs(int64(7), false, "https://www.congress.gov/bill/119th-congress/senate-bill/146").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), now))
	mock.ExpectExec(`UPDATE web_content SET path`).
		WithArgs("legi/7/synopsis.3.congress.txt", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	s := NewPostgresWithPool(mock)
	link, err := s.CreateSourceLink(context.Background(), 7, false,
		"https://www.congress.gov/bill/119th-congress/senate-bill/146")
	require.NoError(t, err)
	assert.Equal(t, "pending", link.Path)

	require.NoError(t, s.UpdateSourceLinkPath(context.Background(), link.ID, "legi/7/synopsis.3.congress.txt"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
