package utils

import (
	"fmt"
	"time"
)

// ParseDate interpreta YYYY-MM-DD. String vazia retorna nil sem erro.
func ParseDate(dateStr string) (*time.Time, error) {
	if dateStr == "" {
		return nil, nil
	}

	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return nil, fmt.Errorf("data inválida %q, use o formato AAAA-MM-DD: %w", dateStr, err)
	}

	return &date, nil
}
