package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"source_cache"}, []string{"tenant_id", "source", "payload"}).
		WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "source_cache",
		[]string{"tenant_id", "source", "payload"},
		[][]any{
			{"t1", "uvp", []byte(`{}`)},
			{"t1", "review", []byte(`{}`)},
		})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := CopyFrom(context.Background(), mock, "source_cache", []string{"tenant_id"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n, "an empty batch never reaches the database")
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"source_cache"}, []string{"tenant_id"}).
		WillReturnError(assert.AnError)

	_, err = CopyFrom(context.Background(), mock, "source_cache", []string{"tenant_id"},
		[][]any{{"t1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO source_cache")
}
