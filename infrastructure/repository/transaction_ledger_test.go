package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

func TestBuildLedgerQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		filter       domain.LedgerFilter
		expectedArgs []interface{}
		contains     []string
		notContains  []string
	}{
		{
			name:         "Sem datas usa apenas filial e limite padrão",
			filter:       domain.LedgerFilter{},
			expectedArgs: []interface{}{"b1"},
			contains:     []string{"st.branch_id = $1", "ORDER BY st.created_at DESC, st.id DESC", "LIMIT 1000"},
			notContains:  []string{"st.created_at >=", "st.created_at <"},
		},
		{
			name:         "Com período o fim é exclusivo no dia seguinte",
			filter:       domain.LedgerFilter{DateFrom: &from, DateTo: &to, Limit: 50},
			expectedArgs: []interface{}{"b1", from, to.AddDate(0, 0, 1)},
			contains:     []string{"st.created_at >= $2", "st.created_at < $3", "LIMIT 50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildLedgerQuery("b1", tt.filter)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedArgs, args)
			for _, fragment := range tt.contains {
				assert.Contains(t, query, fragment)
			}
			for _, fragment := range tt.notContains {
				assert.NotContains(t, query, fragment)
			}
		})
	}
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullString(sqlNullString("", false)))
	require.NotNil(t, nullString(sqlNullString("x", true)))
	assert.Equal(t, "x", *nullString(sqlNullString("x", true)))
}

func sqlNullString(value string, valid bool) sql.NullString {
	return sql.NullString{String: value, Valid: valid}
}
