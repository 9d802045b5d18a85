package gallery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBackendDown = errors.New("backend down")

// memoryAdapter keeps the encoded collection in memory so tests see the same bytes a real backend
// would store.
type memoryAdapter struct {
	data     []byte
	loadErr  error
	storeErr error
	loads    int
	stores   int
}

func (m *memoryAdapter) Load(ctx context.Context) (Collection, error) {
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return Collection{}, nil
	}
	return decodeOrEmpty(ctx, "memory", m.data), nil
}

func (m *memoryAdapter) Store(ctx context.Context, items Collection) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	data, err := Encode(items)
	if err != nil {
		return err
	}
	m.stores++
	m.data = data
	return nil
}

func setupTest(t *testing.T) *assert.Assertions {
	return assert.New(t)
}

// newTestStore returns a store with deterministic IDs (item-1, item-2, ...).
func newTestStore(adapter Adapter) *Store {
	s := NewStore(adapter)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	return s
}

func seedItems() Collection {
	return Collection{
		{ID: "a", ImageURL: "https://example.com/a.jpg", Category: CategoryFormal, Title: "Navy suit"},
		{ID: "b", ImageURL: "https://example.com/b.jpg", Category: CategoryCasual},
		{ID: "c", ImageURL: "https://example.com/c.jpg", Category: CategoryInners, Title: "Vests"},
	}
}

func seededAdapter(t *testing.T, items Collection) *memoryAdapter {
	data, err := Encode(items)
	if err != nil {
		t.Fatal(err)
	}
	return &memoryAdapter{data: data}
}
