package extractor

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/catalog-cli/internal/db"
	"github.com/sells-group/catalog-cli/internal/model"
)

// SeedFile is the YAML import format for tenants and their cached source
// payloads, the inputs every extraction run reads from.
type SeedFile struct {
	Tenants []SeedTenant `yaml:"tenants"`
	Sources []SeedSource `yaml:"sources"`
}

// SeedTenant declares one tenant.
type SeedTenant struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	WebsiteURL string `yaml:"website_url"`
}

// SeedSource is one cached payload row. Payload keeps the shape of the
// corresponding source payload type (UVPPayload, PagePayload, ...).
type SeedSource struct {
	TenantID string         `yaml:"tenant_id"`
	Source   string         `yaml:"source"`
	Payload  map[string]any `yaml:"payload"`
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}

	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "seed: parse %s", path)
	}

	ids := make(map[string]struct{}, len(f.Tenants))
	for i, t := range f.Tenants {
		if t.ID == "" || t.Name == "" {
			return nil, eris.Errorf("seed: tenant %d needs id and name", i)
		}
		ids[t.ID] = struct{}{}
	}
	for i, s := range f.Sources {
		if _, err := model.ParseSource(s.Source); err != nil {
			return nil, eris.Wrapf(err, "seed: source row %d", i)
		}
		if s.TenantID == "" {
			return nil, eris.Errorf("seed: source row %d needs tenant_id", i)
		}
		if len(s.Payload) == 0 {
			return nil, eris.Errorf("seed: source row %d has empty payload", i)
		}
	}
	return &f, nil
}

// UpsertTenant inserts or refreshes one tenant row.
func (s *PostgresSourceStore) UpsertTenant(ctx context.Context, t Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, website_url)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = $2, website_url = $3`,
		t.ID, t.Name, t.WebsiteURL,
	)
	return eris.Wrapf(err, "sourcestore: upsert tenant %s", t.ID)
}

// ImportSources bulk-loads payload rows into the source cache via COPY.
func (s *PostgresSourceStore) ImportSources(ctx context.Context, sources []SeedSource) (int64, error) {
	rows := make([][]any, 0, len(sources))
	for i, src := range sources {
		payloadJSON, err := json.Marshal(src.Payload)
		if err != nil {
			return 0, eris.Wrapf(err, "sourcestore: marshal payload row %d", i)
		}
		rows = append(rows, []any{src.TenantID, src.Source, payloadJSON})
	}
	return db.CopyFrom(ctx, s.pool, "source_cache", []string{"tenant_id", "source", "payload"}, rows)
}
