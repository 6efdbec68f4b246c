package repository

import (
	"context"
	"fmt"
	"strings"

	"valcoin-api/internal/models"
)

type SettingsRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
}

type settingsRepository struct {
	q queryer
}

// GetAll reads every setting row. Values are stored JSON-quoted by the admin
// UI; the quoting is stripped here so callers see plain strings.
func (r *settingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows := []models.Setting{}
	err := r.q.SelectContext(ctx, &rows, `SELECT chave, valor, updated_at FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = unquote(row.Value)
	}
	return settings, nil
}

func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}
