package gallery

import (
	"context"
	"fmt"

	"github.com/segmentio/ksuid"
)

// Store implements the gallery operations on top of an Adapter. Nothing is cached between calls:
// every mutation loads the current collection, changes it and writes the whole collection back.
// Concurrent writers are not coordinated, so the last write wins.
type Store struct {
	adapter Adapter
	newID   func() string
}

func NewStore(adapter Adapter) *Store {
	return &Store{
		adapter: adapter,
		newID:   func() string { return ksuid.New().String() },
	}
}

func NewStoreFromEnv() *Store {
	return NewStore(NewAdapterFromEnv())
}

func (s *Store) Adapter() Adapter {
	return s.adapter
}

// List returns every item in display order.
func (s *Store) List(ctx context.Context) (Collection, error) {
	items, err := s.adapter.Load(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Add assigns the item a new ID and puts it first.
func (s *Store) Add(ctx context.Context, in NewItem) (Item, error) {
	items, err := s.adapter.Load(ctx)
	if err != nil {
		return Item{}, err
	}

	id := s.newID()
	for items.IndexOf(id) >= 0 {
		id = s.newID()
	}

	item := Item{
		ID:       id,
		ImageURL: in.ImageURL,
		Category: in.Category,
		Title:    in.Title,
	}

	next := make(Collection, 0, len(items)+1)
	next = append(next, item)
	next = append(next, items...)

	if err := s.adapter.Store(ctx, next); err != nil {
		return Item{}, fmt.Errorf("saving new gallery item: %w", err)
	}

	return item, nil
}

// Update changes the title and/or category of an item. It returns false, without writing, if no
// item has the given ID.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (Item, bool, error) {
	items, err := s.adapter.Load(ctx)
	if err != nil {
		return Item{}, false, err
	}

	idx := items.IndexOf(id)
	if idx < 0 {
		return Item{}, false, nil
	}

	items[idx] = in.apply(items[idx])

	if err := s.adapter.Store(ctx, items); err != nil {
		return Item{}, false, fmt.Errorf("saving gallery item %s: %w", id, err)
	}

	return items[idx], true, nil
}

// Delete removes an item. It returns false, without writing, if no item has the given ID.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	items, err := s.adapter.Load(ctx)
	if err != nil {
		return false, err
	}

	idx := items.IndexOf(id)
	if idx < 0 {
		return false, nil
	}

	next := make(Collection, 0, len(items)-1)
	next = append(next, items[:idx]...)
	next = append(next, items[idx+1:]...)

	if err := s.adapter.Store(ctx, next); err != nil {
		return false, fmt.Errorf("deleting gallery item %s: %w", id, err)
	}

	return true, nil
}

// Reorder puts the items in the order of orderedIDs, which must name every current item exactly
// once. Any other input returns false and leaves the stored order untouched.
func (s *Store) Reorder(ctx context.Context, orderedIDs []string) (bool, error) {
	items, err := s.adapter.Load(ctx)
	if err != nil {
		return false, err
	}

	if len(orderedIDs) != len(items) {
		return false, nil
	}

	byID := make(map[string]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	next := make(Collection, 0, len(items))
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		item, ok := byID[id]
		if !ok || seen[id] {
			return false, nil
		}
		seen[id] = true
		next = append(next, item)
	}

	if err := s.adapter.Store(ctx, next); err != nil {
		return false, fmt.Errorf("saving gallery order: %w", err)
	}

	return true, nil
}
