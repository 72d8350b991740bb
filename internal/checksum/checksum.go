package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateContentHash генерирует SHA256 хеш записи корпуса
// Формула: SHA256(url|label|text), текст с обрезанными пробелами по краям
func (g *Generator) GenerateContentHash(url, label, text string) string {
	content := fmt.Sprintf("%s|%s|%s", url, label, strings.TrimSpace(text))

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyContentHash проверяет соответствие хеша
func (g *Generator) VerifyContentHash(expectedHash, url, label, text string) bool {
	return g.GenerateContentHash(url, label, text) == expectedHash
}
