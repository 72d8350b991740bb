package storage

import (
	"context"
	"time"
)

// CorpusRecord представляет извлечённую статью для сохранения в БД
type CorpusRecord struct {
	RunID     string // UUID запуска краулера
	Site      string // имя адаптера
	URL       string
	Label     string // "0" фейк-чек, "1" проверенные новости
	Text      string
	CheckSum  string // SHA256 (url|label|text)
	ScrapedAt time.Time
}

// Repository интерфейс для работы с хранилищем корпуса
type Repository interface {
	// EnsureSchema создаёт таблицу корпуса, если её нет
	EnsureSchema(ctx context.Context) error

	// UpsertRecord сохраняет или обновляет запись по URL, возвращает isNew
	UpsertRecord(ctx context.Context, rec *CorpusRecord) (isNew bool, err error)

	// ExistsByURL проверяет наличие записи по URL
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// CountBySite получает количество записей для сайта
	CountBySite(ctx context.Context, site string) (int, error)

	Close() error
}
