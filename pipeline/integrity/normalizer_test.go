package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItemSource struct {
	names   []string
	ids     map[string]int
	listErr error
	findErr error
}

func (f *fakeItemSource) ListItemNames(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.names, nil
}

func (f *fakeItemSource) FindItemIDByName(ctx context.Context, name string) (int, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	id, ok := f.ids[name]
	if !ok {
		return 0, errors.New("нет такого товара")
	}
	return id, nil
}

type fakeClientSource struct {
	names   []string
	ids     map[string]int
	listErr error
	findErr error
}

func (f *fakeClientSource) ListClientNames(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.names, nil
}

func (f *fakeClientSource) FindClientIDByName(ctx context.Context, name string) (int, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	id, ok := f.ids[name]
	if !ok {
		return 0, errors.New("нет такого клиента")
	}
	return id, nil
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()

	items := &fakeItemSource{names: []string{"iPhone 15", "Dell XPS", "MacBook Pro"}}
	clients := &fakeClientSource{names: []string{"Client A", "TechCorp", "AlphaLLC"}}

	n := NewNormalizer(items, clients, 0.5)
	require.NoError(t, n.Refresh(context.Background()))
	return n
}

func TestNormalizerExactMatch(t *testing.T) {
	n := newTestNormalizer(t)

	got, ok := n.NormalizeItem("iphone 15")
	assert.True(t, ok)
	assert.Equal(t, "iPhone 15", got)

	got, ok = n.NormalizeItem("  DELL XPS  ")
	assert.True(t, ok)
	assert.Equal(t, "Dell XPS", got)

	got, ok = n.NormalizeClient("TECHCORP")
	assert.True(t, ok)
	assert.Equal(t, "TechCorp", got)
}

func TestNormalizerFuzzyMatch(t *testing.T) {
	n := newTestNormalizer(t)

	got, ok := n.NormalizeItem("iphone-15")
	assert.True(t, ok)
	assert.Equal(t, "iPhone 15", got)

	got, ok = n.NormalizeItem("macbok pro")
	assert.True(t, ok)
	assert.Equal(t, "MacBook Pro", got)

	got, ok = n.NormalizeClient("tech corp")
	assert.True(t, ok)
	assert.Equal(t, "TechCorp", got)
}

func TestNormalizerNoMatch(t *testing.T) {
	n := newTestNormalizer(t)

	_, ok := n.NormalizeItem("quantum widget")
	assert.False(t, ok)

	_, ok = n.NormalizeClient("")
	assert.False(t, ok)

	_, ok = n.NormalizeClient("   ")
	assert.False(t, ok)
}

func TestNormalizerEmptyBeforeRefresh(t *testing.T) {
	items := &fakeItemSource{names: []string{"iPhone 15"}}
	clients := &fakeClientSource{names: []string{"Client A"}}
	n := NewNormalizer(items, clients, 0.5)

	// Кэш пуст, совпадений нет даже для точных названий
	_, ok := n.NormalizeItem("iPhone 15")
	assert.False(t, ok)
}

// Ошибка обновления не должна стирать последний рабочий кэш
func TestNormalizerRefreshKeepsOldCacheOnError(t *testing.T) {
	items := &fakeItemSource{names: []string{"iPhone 15"}}
	clients := &fakeClientSource{names: []string{"Client A"}}
	n := NewNormalizer(items, clients, 0.5)
	require.NoError(t, n.Refresh(context.Background()))

	items.listErr = errors.New("база недоступна")
	assert.Error(t, n.Refresh(context.Background()))

	got, ok := n.NormalizeItem("iphone 15")
	assert.True(t, ok)
	assert.Equal(t, "iPhone 15", got)
}
