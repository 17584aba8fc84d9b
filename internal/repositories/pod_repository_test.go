package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const isMemberQuery = `SELECT EXISTS(SELECT 1 FROM pods WHERE id=$1) AS pod_exists`

func TestIsMemberUnknownPod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPodRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(isMemberQuery)).
		WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"pod_exists", "member"}).AddRow(false, false))

	member, err := repo.IsMember(context.Background(), "p1", "u1")

	require.ErrorIs(t, err, ErrPodNotFound)
	assert.False(t, member)
}

func TestIsMemberExistingPod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPodRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(isMemberQuery)).
		WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"pod_exists", "member"}).AddRow(true, true))
	mock.ExpectQuery(regexp.QuoteMeta(isMemberQuery)).
		WithArgs("p1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"pod_exists", "member"}).AddRow(true, false))

	member, err := repo.IsMember(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = repo.IsMember(context.Background(), "p1", "u2")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestIsMemberQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPodRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(isMemberQuery)).WillReturnError(sql.ErrConnDone)

	_, err := repo.IsMember(context.Background(), "p1", "u1")
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrPodNotFound)
}

func TestGetPodNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPodRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pods p WHERE p.id=$1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetPod(context.Background(), "missing")
	require.ErrorIs(t, err, ErrPodNotFound)
}
