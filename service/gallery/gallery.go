// Package gallery keeps the ordered list of product images shown on the public product pages.
// The list is stored as a single JSON array; an item's position in the array is its display rank.
package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Category string

const (
	CategoryFormal Category = "formal"
	CategoryCasual Category = "casual"
	CategoryInners Category = "inners"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryFormal, CategoryCasual, CategoryInners}

func (c Category) IsValid() bool {
	for _, it := range Categories {
		if c == it {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Label is the capitalized form used in page headings and tabs.
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Item is one product image.
type Item struct {
	ID       string   `json:"id"`
	ImageURL string   `json:"imageUrl"`
	Category Category `json:"category"`
	Title    string   `json:"title,omitempty"`
}

// AltText describes the image for screen readers when no title was given.
func (i Item) AltText() string {
	if i.Title != "" {
		return i.Title
	}
	return fmt.Sprintf("%s clothing", i.Category)
}

// Collection is the gallery in display order.
type Collection []Item

// IndexOf returns the position of the item with the given ID, or -1.
func (c Collection) IndexOf(id string) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i, item := range c {
		ids[i] = item.ID
	}
	return ids
}

// InCategory returns the items of one category, keeping their relative order. An empty category
// returns the whole collection.
func (c Collection) InCategory(category Category) Collection {
	if category == "" {
		return c
	}
	filtered := make(Collection, 0, len(c))
	for _, item := range c {
		if item.Category == category {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// NewItem is the input to Store.Add. It is expected to be validated by the caller.
type NewItem struct {
	ImageURL string
	Category Category
	Title    string
}

// UpdateInput holds the fields to change on an item. A nil field is left untouched; a non-nil
// pointer to the empty string clears the title.
type UpdateInput struct {
	Title    *string
	Category *Category
}

func (u UpdateInput) apply(item Item) Item {
	if u.Title != nil {
		item.Title = *u.Title
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	return item
}

type ErrItemNotFound struct {
	ID string
}

func (e ErrItemNotFound) Error() string {
	return fmt.Sprintf("gallery item %s not found", e.ID)
}

// Encode serializes the collection exactly as every backend stores it.
func Encode(items Collection) ([]byte, error) {
	if items == nil {
		items = Collection{}
	}
	return json.MarshalIndent(items, "", "  ")
}

// Decode parses a stored collection. Empty input and a JSON null are an empty collection.
func Decode(data []byte) (Collection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Collection{}, nil
	}

	var items Collection
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = Collection{}
	}
	return items, nil
}
