package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructureValid(t *testing.T) {
	data := map[string]any{
		"item":   "iPhone 15",
		"qty":    json.Number("2"),
		"client": "Client A",
		"action": "sold",
	}

	assert.Empty(t, ValidateStructure(data))
}

func TestValidateStructureErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want []string
	}{
		{
			name: "empty input",
			data: nil,
			want: []string{"input data is empty"},
		},
		{
			name: "missing fields",
			data: map[string]any{"item": "iPhone 15"},
			want: []string{
				"missing required field: qty",
				"missing required field: client",
			},
		},
		{
			name: "nil treated as missing",
			data: map[string]any{"item": "iPhone 15", "qty": nil, "client": "Client A"},
			want: []string{"missing required field: qty"},
		},
		{
			name: "qty as string",
			data: map[string]any{"item": "iPhone 15", "qty": "two", "client": "Client A"},
			want: []string{"field qty must be an integer"},
		},
		{
			name: "qty as fraction",
			data: map[string]any{"item": "iPhone 15", "qty": json.Number("2.5"), "client": "Client A"},
			want: []string{"field qty must be an integer"},
		},
		{
			name: "qty as float",
			data: map[string]any{"item": "iPhone 15", "qty": float64(2), "client": "Client A"},
			want: []string{"field qty must be an integer"},
		},
		{
			name: "zero qty",
			data: map[string]any{"item": "iPhone 15", "qty": 0, "client": "Client A"},
			want: []string{"field qty must be greater than zero"},
		},
		{
			name: "negative qty",
			data: map[string]any{"item": "iPhone 15", "qty": json.Number("-3"), "client": "Client A"},
			want: []string{"field qty must be greater than zero"},
		},
		{
			name: "blank item",
			data: map[string]any{"item": "   ", "qty": 1, "client": "Client A"},
			want: []string{"field item must be a non-empty string"},
		},
		{
			name: "client is not a string",
			data: map[string]any{"item": "iPhone 15", "qty": 1, "client": 42},
			want: []string{"field client must be a non-empty string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateStructure(tt.data))
		})
	}
}

// Ошибки присутствия полей отсекают проверку типов: для частично
// заполненной карты сообщения о типах не добавляются
func TestValidateStructurePresenceShortCircuit(t *testing.T) {
	data := map[string]any{"qty": "bad"}

	errs := ValidateStructure(data)

	assert.ElementsMatch(t, []string{
		"missing required field: item",
		"missing required field: client",
	}, errs)
}

func TestToTransaction(t *testing.T) {
	data := map[string]any{
		"item":   "Dell XPS",
		"qty":    json.Number("3"),
		"client": "TechCorp",
		"action": "sold",
	}

	tx, err := ToTransaction(data)
	require.NoError(t, err)
	assert.Equal(t, "Dell XPS", tx.Item)
	assert.Equal(t, 3, tx.Qty)
	assert.Equal(t, "TechCorp", tx.Client)
	assert.Equal(t, "sold", tx.Action)
}

func TestToTransactionDefaultsAction(t *testing.T) {
	tx, err := ToTransaction(map[string]any{"item": "iPhone 15", "qty": 1, "client": "Client A"})
	require.NoError(t, err)
	assert.Empty(t, tx.Action)
}

func TestToTransactionBadTypes(t *testing.T) {
	_, err := ToTransaction(map[string]any{"item": 5, "qty": 1, "client": "Client A"})
	assert.Error(t, err)

	_, err = ToTransaction(map[string]any{"item": "iPhone 15", "qty": "x", "client": "Client A"})
	assert.Error(t, err)
}
