package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflow-dq/smartflow/database"
	"github.com/smartflow-dq/smartflow/models"
)

func newTestChecker(t *testing.T) (*Checker, *fakeItemSource, *fakeClientSource) {
	t.Helper()

	items := &fakeItemSource{
		names: []string{"iPhone 15", "Dell XPS", "MacBook Pro"},
		ids:   map[string]int{"iPhone 15": 1, "Dell XPS": 2, "MacBook Pro": 3},
	}
	clients := &fakeClientSource{
		names: []string{"Client A", "TechCorp", "AlphaLLC"},
		ids:   map[string]int{"Client A": 1, "TechCorp": 2, "AlphaLLC": 3},
	}

	n := NewNormalizer(items, clients, 0.5)
	require.NoError(t, n.Refresh(context.Background()))
	return NewChecker(n, items, clients), items, clients
}

func TestCheckerResolveKnownEntities(t *testing.T) {
	checker, _, _ := newTestChecker(t)

	res, err := checker.Resolve(context.Background(), &models.ParsedTransaction{
		Item:   "iphone-15",
		Qty:    2,
		Client: "client a",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ItemID)
	assert.Equal(t, 1, res.ClientID)
	assert.Equal(t, "iPhone 15", res.Log.NormalizedItem)
	assert.Equal(t, "Client A", res.Log.NormalizedClient)
}

func TestCheckerResolveUnknownItem(t *testing.T) {
	checker, _, _ := newTestChecker(t)

	res, err := checker.Resolve(context.Background(), &models.ParsedTransaction{
		Item:   "quantum widget",
		Qty:    1,
		Client: "TechCorp",
	})
	require.NoError(t, err)

	assert.Zero(t, res.ItemID)
	assert.Empty(t, res.Log.NormalizedItem)
	assert.Equal(t, 2, res.ClientID)
	assert.Equal(t, "TechCorp", res.Log.NormalizedClient)
}

// Гонка между кэшем и справочником: имя нормализовано по старому кэшу,
// но строки в базе уже нет. Идентификатор остается нулевым
func TestCheckerResolveStaleCacheEntry(t *testing.T) {
	checker, items, _ := newTestChecker(t)
	items.findErr = database.ErrNotFound

	res, err := checker.Resolve(context.Background(), &models.ParsedTransaction{
		Item:   "iPhone 15",
		Qty:    1,
		Client: "Client A",
	})
	require.NoError(t, err)

	assert.Zero(t, res.ItemID)
	assert.Equal(t, "iPhone 15", res.Log.NormalizedItem)
}

func TestCheckerResolveInfrastructureError(t *testing.T) {
	checker, items, _ := newTestChecker(t)
	items.findErr = errors.New("соединение разорвано")

	_, err := checker.Resolve(context.Background(), &models.ParsedTransaction{
		Item:   "iPhone 15",
		Qty:    1,
		Client: "Client A",
	})
	assert.Error(t, err)
}
