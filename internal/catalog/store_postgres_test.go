package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// insertProductArgs matches the 11 placeholders of insertProductSQL without
// asserting values; pgxmock requires the argument count to be declared.
func insertProductArgs() []any {
	args := make([]any, 11)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func productRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "tenant_id", "name", "description", "price", "currency",
		"is_service", "status", "tags", "metadata", "created_at", "updated_at",
	})
}

func TestPostgresCatalog_ListByTenant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("t1", 1000).
		WillReturnRows(productRows().
			AddRow("p1", "t1", "Duct Cleaning", "desc", nil, "",
				true, "draft", []string{"hvac"}, []byte(`{"extraction_confidence":0.7}`), now, now).
			AddRow("p2", "t1", "Thermostats", "", nil, "",
				false, "active", []string{}, nil, now, now))

	products, err := NewPostgres(mock).ListByTenant(context.Background(), "t1", 0)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Duct Cleaning", products[0].Name)
	assert.Equal(t, StatusDraft, products[0].Status)
	assert.Equal(t, 0.7, products[0].Confidence())
	assert.Equal(t, []string{"hvac"}, products[0].Tags)

	assert.Equal(t, "Thermostats", products[1].Name)
	assert.Nil(t, products[1].Metadata)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(insertProductArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, err := NewPostgres(mock).Create(context.Background(), ProductDraft{
		TenantID: "t1",
		Name:     "Water Heater Install",
		Metadata: map[string]any{MetaConfidence: 0.8},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusDraft, p.Status, "empty status defaults to draft")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_Create_EmptyName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgres(mock).Create(context.Background(), ProductDraft{TenantID: "t1", Name: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is empty")
}

func TestPostgresCatalog_BulkCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO products").WithArgs(insertProductArgs()...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO products").WithArgs(insertProductArgs()...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	res, err := NewPostgres(mock).BulkCreate(context.Background(), []ProductDraft{
		{TenantID: "t1", Name: "One"},
		{TenantID: "t1", Name: "Two"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Empty(t, res.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_BulkCreate_FailureDoesNotLoseEarlierRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO products").WithArgs(insertProductArgs()...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO products").WithArgs(insertProductArgs()...).WillReturnError(eris.New("duplicate key"))
	mock.ExpectExec("INSERT INTO products").WithArgs(insertProductArgs()...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	res, err := NewPostgres(mock).BulkCreate(context.Background(), []ProductDraft{
		{TenantID: "t1", Name: "One"},
		{TenantID: "t1", Name: "Two"},
		{TenantID: "t1", Name: "Three"},
	})
	require.NoError(t, err)
	// Each draft is its own statement, so a mid-chunk failure cannot roll
	// back inserts that already succeeded.
	assert.Len(t, res.Created, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, "Two", res.Errors[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_BulkCreate_InvalidDraftRecorded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO products").WithArgs(insertProductArgs()...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	res, err := NewPostgres(mock).BulkCreate(context.Background(), []ProductDraft{
		{TenantID: "t1", Name: ""},
		{TenantID: "t1", Name: "Valid"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].Index)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	desc := "new description"
	mock.ExpectQuery("UPDATE products SET").
		WithArgs("p1", desc).
		WillReturnRows(productRows().
			AddRow("p1", "t1", "Duct Cleaning", desc, nil, "",
				true, "active", []string{}, nil, now, now))

	p, err := NewPostgres(mock).Update(context.Background(), "p1", ProductPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, p.Description)
	assert.Equal(t, StatusActive, p.Status, "status passes through untouched")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_Update_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE products SET").
		WithArgs("missing").
		WillReturnRows(productRows()) // no rows

	_, err = NewPostgres(mock).Update(context.Background(), "missing", ProductPatch{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
