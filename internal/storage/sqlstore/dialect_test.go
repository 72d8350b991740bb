package sqlstore

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialect(t *testing.T) {
	d, err := newDialect("mssql", "")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", d.driverName)
	assert.Contains(t, d.upsert, "MERGE INTO corpus_records")
	assert.Contains(t, d.upsert, "OUTPUT $action")

	d, err = newDialect("postgres", "fake_news")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.driverName)
	assert.Contains(t, d.schema, "CREATE TABLE IF NOT EXISTS fake_news")
	assert.Contains(t, d.upsert, "ON CONFLICT (url)")

	_, err = newDialect("sqlite", "")
	assert.Error(t, err)
}

func TestNewDialectRejectsUnsafeTableNames(t *testing.T) {
	for _, name := range []string{"records; DROP TABLE x", "1records", "a-b", "dbo.records"} {
		_, err := newDialect("postgres", name)
		assert.Error(t, err, name)
	}
}

func TestArgsBinding(t *testing.T) {
	names := []string{"URL", "Site"}

	named := namedArgs(names, "https://a.test/x", "tsek")
	require.Len(t, named, 2)
	assert.Equal(t, sql.Named("URL", "https://a.test/x"), named[0])
	assert.Equal(t, sql.Named("Site", "tsek"), named[1])

	positional := positionalArgs(names, "https://a.test/x", "tsek")
	assert.Equal(t, []any{"https://a.test/x", "tsek"}, positional)
}

func TestRegisteredDrivers(t *testing.T) {
	drivers := sql.Drivers()
	assert.Contains(t, drivers, "pgx")
	assert.Contains(t, drivers, "sqlserver")
}
