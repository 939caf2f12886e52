package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `
tenants:
  - id: t1
    name: Acme Plumbing
    website_url: https://acme.example
sources:
  - tenant_id: t1
    source: uvp
    payload:
      text: We offer drain cleaning and pipe repair.
  - tenant_id: t1
    source: review
    payload:
      reviews:
        - text: Great drain cleaning service.
          rating: 5
`)

	f, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, f.Tenants, 1)
	assert.Equal(t, "Acme Plumbing", f.Tenants[0].Name)
	require.Len(t, f.Sources, 2)
	assert.Equal(t, "uvp", f.Sources[0].Source)
	assert.Equal(t, "We offer drain cleaning and pipe repair.", f.Sources[0].Payload["text"])
}

func TestLoadSeedFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "tenant without name",
			body:    "tenants:\n  - id: t1\n",
			wantErr: "needs id and name",
		},
		{
			name:    "unknown source",
			body:    "sources:\n  - tenant_id: t1\n    source: carrier_pigeon\n    payload:\n      x: 1\n",
			wantErr: "unknown source",
		},
		{
			name:    "source without tenant",
			body:    "sources:\n  - source: uvp\n    payload:\n      x: 1\n",
			wantErr: "needs tenant_id",
		},
		{
			name:    "empty payload",
			body:    "sources:\n  - tenant_id: t1\n    source: uvp\n",
			wantErr: "empty payload",
		},
		{
			name:    "not yaml",
			body:    "{{{",
			wantErr: "parse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeedFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestUpsertTenant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO tenants").
		WithArgs("t1", "Acme Plumbing", "https://acme.example").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPostgresSourceStore(mock).UpsertTenant(context.Background(), Tenant{
		ID:         "t1",
		Name:       "Acme Plumbing",
		WebsiteURL: "https://acme.example",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportSources(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"source_cache"}, []string{"tenant_id", "source", "payload"}).
		WillReturnResult(2)

	n, err := NewPostgresSourceStore(mock).ImportSources(context.Background(), []SeedSource{
		{TenantID: "t1", Source: "uvp", Payload: map[string]any{"text": "We offer drain cleaning."}},
		{TenantID: "t1", Source: "keyword", Payload: map[string]any{"rows": []any{}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportSources_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewPostgresSourceStore(mock).ImportSources(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
