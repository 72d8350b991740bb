package sqlstore

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

// dialect holds the driver-specific SQL for one backend.
type dialect struct {
	driverName string
	schema     string
	upsert     string
	exists     string
	count      string
	// args binds values in the order the statements expect them.
	args func(names []string, values ...any) []any
}

func newDialect(driver, table string) (*dialect, error) {
	if table == "" {
		table = "corpus_records"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	switch driver {
	case "mssql":
		return mssqlDialect(table), nil
	case "postgres":
		return postgresDialect(table), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

func mssqlDialect(table string) *dialect {
	return &dialect{
		driverName: "sqlserver",
		schema: fmt.Sprintf(`
IF OBJECT_ID(N'%[1]s', N'U') IS NULL
CREATE TABLE %[1]s (
	[UID] BIGINT IDENTITY(1,1) PRIMARY KEY,
	[RunID] NVARCHAR(36) NOT NULL,
	[Site] NVARCHAR(128) NOT NULL,
	[URL] NVARCHAR(850) NOT NULL UNIQUE,
	[Label] NVARCHAR(8) NOT NULL,
	[Text] NVARCHAR(MAX) NOT NULL,
	[CheckSum] NVARCHAR(64) NOT NULL,
	[ScrapedAt] DATETIME2 NOT NULL
);`, table),
		// MERGE ... OUTPUT $action: INSERT для новой строки, UPDATE для существующей
		upsert: fmt.Sprintf(`
MERGE INTO %s AS target
USING (SELECT @URL AS URL) AS source
ON target.[URL] = source.URL
WHEN MATCHED THEN
	UPDATE SET
		[RunID] = @RunID,
		[Site] = @Site,
		[Label] = @Label,
		[Text] = @Text,
		[CheckSum] = @CheckSum,
		[ScrapedAt] = @ScrapedAt
WHEN NOT MATCHED THEN
	INSERT ([RunID], [Site], [URL], [Label], [Text], [CheckSum], [ScrapedAt])
	VALUES (@RunID, @Site, @URL, @Label, @Text, @CheckSum, @ScrapedAt)
OUTPUT $action;`, table),
		exists: fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE [URL] = @URL`, table),
		count:  fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE [Site] = @Site`, table),
		args:   namedArgs,
	}
}

func postgresDialect(table string) *dialect {
	return &dialect{
		driverName: "pgx",
		schema: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	uid BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	site TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	text TEXT NOT NULL,
	checksum TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL
)`, table),
		// xmax = 0 только у только что вставленной строки
		upsert: fmt.Sprintf(`
INSERT INTO %s (run_id, site, url, label, text, checksum, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (url) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	site = EXCLUDED.site,
	label = EXCLUDED.label,
	text = EXCLUDED.text,
	checksum = EXCLUDED.checksum,
	scraped_at = EXCLUDED.scraped_at
RETURNING CASE WHEN xmax = 0 THEN 'INSERT' ELSE 'UPDATE' END`, table),
		exists: fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE url = $1`, table),
		count:  fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE site = $1`, table),
		args:   positionalArgs,
	}
}

func namedArgs(names []string, values ...any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = sql.Named(names[i], v)
	}
	return out
}

func positionalArgs(_ []string, values ...any) []any {
	return values
}
