package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
)

func newRepoWithMock(t *testing.T) (*SellerRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSellerRepo(sqlx.NewDb(db, "postgres")), mock
}

var sellerCols = []string{
	"id", "user_id", "ml_user_id", "access_token", "name",
	"nickname", "email", "first_name", "last_name", "country_id", "site_id", "registration_date",
	"phone", "address", "city", "state", "zip_code", "tax_id", "corporate_name", "brand_name", "seller_experience",
	"enriched_at", "created_at", "updated_at",
}

func sellerRow(rows *sqlmock.Rows, id int64, userID int64, mlUserID string, at time.Time) *sqlmock.Rows {
	return rows.AddRow(id, userID, mlUserID, "tok", "Shop A",
		"shopa", nil, "Ana", nil, "AR", "MLA", nil,
		nil, nil, nil, nil, nil, nil, nil, nil, nil,
		at, at, at)
}

func strp(s string) *string { return &s }

func TestCreate(t *testing.T) {
	r, mock := newRepoWithMock(t)
	now := time.Now().UTC()
	g := &entity.GlobalSeller{
		ID: 1, UserID: 7, MLUserID: "ML1", AccessToken: "tok", Name: strp("Shop A"),
		Profile:    entity.Profile{Nickname: strp("shopa")},
		EnrichedAt: &now, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO global_sellers`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Create(context.Background(), g))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT INTO global_sellers`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "global_sellers_user_ml_key"})

	err := r.Create(context.Background(), &entity.GlobalSeller{ID: 1, UserID: 7, MLUserID: "ML1"})
	assert.ErrorIs(t, err, common.ErrDuplicateExternalAccount)
}

func TestCreate_OtherErrorPassesThrough(t *testing.T) {
	r, mock := newRepoWithMock(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO global_sellers`).WillReturnError(boom)

	err := r.Create(context.Background(), &entity.GlobalSeller{ID: 1})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrDuplicateExternalAccount)
}

func TestUpdate_NoOwnedRow(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectExec(`UPDATE global_sellers SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Update(context.Background(), &entity.GlobalSeller{ID: 1, UserID: 7})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdate(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectExec(`(?s)UPDATE global_sellers SET.+WHERE id=\$\d+ AND user_id=\$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Update(context.Background(), &entity.GlobalSeller{ID: 1, UserID: 7}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectExec(`DELETE FROM global_sellers WHERE id=\$1 AND user_id=\$2`).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM global_sellers`).
		WithArgs(int64(1), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.Delete(context.Background(), 1, 7))
	assert.ErrorIs(t, r.Delete(context.Background(), 1, 8), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	r, mock := newRepoWithMock(t)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	mock.ExpectQuery(`FROM global_sellers WHERE id=\$1`).
		WithArgs(int64(1)).
		WillReturnRows(sellerRow(sqlmock.NewRows(sellerCols), 1, 7, "ML1", at))

	g, err := r.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), g.UserID)
	assert.Equal(t, "ML1", g.MLUserID)
	require.NotNil(t, g.Nickname)
	assert.Equal(t, "shopa", *g.Nickname)
	assert.Nil(t, g.Email)
	assert.Equal(t, "Ana", g.FullName())
	require.NotNil(t, g.EnrichedAt)
	assert.True(t, at.Equal(*g.EnrichedAt))
}

func TestGetByID_Missing(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM global_sellers WHERE id=\$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(sellerCols))

	_, err := r.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListByUserID(t *testing.T) {
	r, mock := newRepoWithMock(t)
	at := time.Now().UTC()
	rows := sqlmock.NewRows(sellerCols)
	sellerRow(rows, 2, 7, "ML2", at)
	sellerRow(rows, 1, 7, "ML1", at.Add(-time.Minute))
	mock.ExpectQuery(`WHERE user_id=\$1 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	out, err := r.ListByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ML2", out[0].MLUserID)
}

func TestListByUserID_EmptyIsNotNil(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM global_sellers WHERE user_id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(sellerCols))

	out, err := r.ListByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestExistsForUser(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(7), "ML1", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(7), "ML1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := r.ExistsForUser(context.Background(), 7, "ML1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ExistsForUser(context.Background(), 7, "ML1", 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
