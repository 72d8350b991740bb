package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"news-corpus-crawler/internal/observability"
	"news-corpus-crawler/internal/storage"
)

var upsertArgNames = []string{"RunID", "Site", "URL", "Label", "Text", "CheckSum", "ScrapedAt"}

// Repository is the corpus store on top of database/sql, for SQL Server or PostgreSQL.
type Repository struct {
	db             *sql.DB
	dialect        *dialect
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(driver, dsn, table string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	d, err := newDialect(driver, table)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newWithDB(db, d, commandTimeout, logger), nil
}

func newWithDB(db *sql.DB, d *dialect, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	if commandTimeout <= 0 {
		commandTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Repository{db: db, dialect: d, commandTimeout: commandTimeout, logger: logger}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, r.dialect.schema); err != nil {
		return fmt.Errorf("failed to create corpus table: %w", err)
	}
	return nil
}

// UpsertRecord сохраняет или обновляет запись
func (r *Repository) UpsertRecord(ctx context.Context, rec *storage.CorpusRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	scrapedAt := rec.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	args := r.dialect.args(upsertArgNames,
		rec.RunID, rec.Site, rec.URL, rec.Label, rec.Text, rec.CheckSum, scrapedAt,
	)

	var action string
	if err := r.db.QueryRowContext(ctx, r.dialect.upsert, args...).Scan(&action); err != nil {
		return false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	return action == "INSERT", nil
}

// ExistsByURL проверяет наличие записи по URL
func (r *Repository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, r.dialect.exists, r.dialect.args([]string{"URL"}, url)...).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}

	return count > 0, nil
}

// CountBySite получает количество записей сайта
func (r *Repository) CountBySite(ctx context.Context, site string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, r.dialect.count, r.dialect.args([]string{"Site"}, site)...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}

	return count, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
