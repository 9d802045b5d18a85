package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/spf13/viper"

	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/util"
)

func TestAdminRequiresPassword(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "no header"},
		{name: "wrong password", headers: map[string]string{"X-Admin-Password": "nope"}},
		{name: "prefix of password", headers: map[string]string{"X-Admin-Password": testAdminPassword[:5]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, tc := setupTest(t, seedItems())

			resp := tc.do(t, http.MethodGet, "/api/admin/gallery", nil, tt.headers)
			assertErrorResponse(t, assert, resp, http.StatusUnauthorized, "Unauthorized")
		})
	}
}

func TestAdminRejectsEveryoneWhenPasswordUnset(t *testing.T) {
	assert, tc := setupTest(t, seedItems())
	viper.Set("ADMIN_PASSWORD", "")

	resp := tc.do(t, http.MethodGet, "/api/admin/gallery", nil, map[string]string{"X-Admin-Password": ""})
	assertErrorResponse(t, assert, resp, http.StatusUnauthorized, "Unauthorized")
}

func TestAdminAuthCheckedBeforeBody(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.do(t, http.MethodPost, "/api/admin/gallery", "not json", nil)
	assertErrorResponse(t, assert, resp, http.StatusUnauthorized, "Unauthorized")

	items, err := tc.store.List(context.Background())
	assert.NoError(err)
	assert.Len(items, 3)
}

func TestListGalleryItems(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodGet, nil)
	assertValidJSONResponse(assert, resp)

	var items gallery.Collection
	decodeBody(t, resp, &items)
	assert.Equal([]string{"a", "b", "c"}, items.IDs())
	assert.Equal("Linen Shirt", items[0].Title)
}

func TestListGalleryItemsEmptyStore(t *testing.T) {
	assert, tc := setupTest(t, nil)

	resp := tc.admin(t, http.MethodGet, nil)
	assertValidJSONResponse(assert, resp)
	assert.JSONEq("[]", readBody(t, resp))
}

func TestListGalleryItemsBackendDown(t *testing.T) {
	assert, tc := setupTestWithAdapter(t, brokenAdapter{Adapter: newFileAdapter(t, nil), loadErr: errBackendDown})

	resp := tc.admin(t, http.MethodGet, nil)
	assertErrorResponse(t, assert, resp, http.StatusInternalServerError, internalErrorMessage)
}

func TestCreateGalleryItem(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodPost, map[string]string{
		"imageUrl": "https://cdn.example.com/new.jpg",
		"category": "casual",
		"title":    "  <i>Polo</i> Shirt ",
	})
	assert.Equal(http.StatusCreated, resp.StatusCode)

	var item gallery.Item
	decodeBody(t, resp, &item)
	assert.NotEmpty(item.ID)
	assert.Equal("https://cdn.example.com/new.jpg", item.ImageURL)
	assert.Equal(gallery.CategoryCasual, item.Category)
	assert.Equal("Polo Shirt", item.Title)

	items, err := tc.store.List(context.Background())
	assert.NoError(err)
	assert.Equal([]string{item.ID, "a", "b", "c"}, items.IDs())
}

func TestCreateGalleryItemWithoutTitle(t *testing.T) {
	assert, tc := setupTest(t, nil)

	resp := tc.admin(t, http.MethodPost, map[string]string{
		"imageUrl": "https://cdn.example.com/new.jpg",
		"category": "inners",
		"title":    "",
	})
	assert.Equal(http.StatusCreated, resp.StatusCode)
	assert.NotContains(readBody(t, resp), `"title"`)
}

func TestCreateGalleryItemInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "no body",
			body:    nil,
			message: "request body is required",
		},
		{
			name:    "malformed json",
			body:    `{"imageUrl":`,
			message: "invalid request body",
		},
		{
			name:    "missing fields",
			body:    map[string]string{"title": "x"},
			message: "missing required fields: imageUrl, category",
		},
		{
			name:    "missing category",
			body:    map[string]string{"imageUrl": "https://cdn.example.com/x.jpg"},
			message: "missing required fields: category",
		},
		{
			name:    "relative url",
			body:    map[string]string{"imageUrl": "/images/x.jpg", "category": "formal"},
			message: galleryMessages["ImageURL"],
		},
		{
			name:    "unsupported scheme",
			body:    map[string]string{"imageUrl": "ftp://cdn.example.com/x.jpg", "category": "formal"},
			message: galleryMessages["ImageURL"],
		},
		{
			name:    "unknown category",
			body:    map[string]string{"imageUrl": "https://cdn.example.com/x.jpg", "category": "shoes"},
			message: galleryMessages["Category"],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, tc := setupTest(t, seedItems())

			resp := tc.admin(t, http.MethodPost, tt.body)
			assertErrorResponse(t, assert, resp, http.StatusBadRequest, tt.message)

			items, err := tc.store.List(context.Background())
			assert.NoError(err)
			assert.Len(items, 3)
		})
	}
}

func TestCreateGalleryItemWriteFails(t *testing.T) {
	assert, tc := setupTestWithAdapter(t, brokenAdapter{Adapter: newFileAdapter(t, seedItems()), storeErr: errBackendDown})

	resp := tc.admin(t, http.MethodPost, map[string]string{
		"imageUrl": "https://cdn.example.com/new.jpg",
		"category": "formal",
	})
	assertErrorResponse(t, assert, resp, http.StatusInternalServerError, internalErrorMessage)
}

func TestUpdateGalleryItem(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodPatch, map[string]string{"id": "b", "title": "Slim Jeans", "category": "formal"})
	assertValidJSONResponse(assert, resp)

	var item gallery.Item
	decodeBody(t, resp, &item)
	assert.Equal("b", item.ID)
	assert.Equal("Slim Jeans", item.Title)
	assert.Equal(gallery.CategoryFormal, item.Category)
	assert.Equal("https://cdn.example.com/b.jpg", item.ImageURL)

	items, err := tc.store.List(context.Background())
	assert.NoError(err)
	assert.Equal([]string{"a", "b", "c"}, items.IDs())
	assert.Equal(item, items[1])
}

func TestUpdateGalleryItemOnlyTitle(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodPatch, map[string]string{"id": "a", "title": ""})
	assertValidJSONResponse(assert, resp)

	items, err := tc.store.List(context.Background())
	assert.NoError(err)
	assert.Empty(items[0].Title)
	assert.Equal(gallery.CategoryFormal, items[0].Category)
}

func TestUpdateGalleryItemInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{
			name:    "missing id",
			body:    map[string]string{"title": "x"},
			status:  http.StatusBadRequest,
			message: "missing required fields: id",
		},
		{
			name:    "unknown category",
			body:    map[string]string{"id": "a", "category": "shoes"},
			status:  http.StatusBadRequest,
			message: galleryMessages["Category"],
		},
		{
			name:    "empty category",
			body:    map[string]string{"id": "a", "category": ""},
			status:  http.StatusBadRequest,
			message: galleryMessages["Category"],
		},
		{
			name:    "unknown id",
			body:    map[string]string{"id": "zzz", "title": "x"},
			status:  http.StatusNotFound,
			message: gallery.ErrItemNotFound{ID: "zzz"}.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, tc := setupTest(t, seedItems())

			resp := tc.admin(t, http.MethodPatch, tt.body)
			assertErrorResponse(t, assert, resp, tt.status, tt.message)

			items, err := tc.store.List(context.Background())
			assert.NoError(err)
			assert.Equal(seedItems(), items)
		})
	}
}

func TestDeleteGalleryItem(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodDelete, map[string]string{"id": "b"})
	assertValidJSONResponse(assert, resp)

	var body util.SuccessResponse
	decodeBody(t, resp, &body)
	assert.True(body.Success)

	items, err := tc.store.List(context.Background())
	assert.NoError(err)
	assert.Equal([]string{"a", "c"}, items.IDs())

	resp = tc.admin(t, http.MethodDelete, map[string]string{"id": "b"})
	assertErrorResponse(t, assert, resp, http.StatusNotFound, gallery.ErrItemNotFound{ID: "b"}.Error())
}

func TestDeleteGalleryItemMissingID(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodDelete, map[string]string{})
	assertErrorResponse(t, assert, resp, http.StatusBadRequest, "missing required fields: id")
}

func TestReorderGalleryItems(t *testing.T) {
	assert, tc := setupTest(t, seedItems())

	resp := tc.admin(t, http.MethodPut, map[string][]string{"orderedIds": {"c", "a", "b"}})
	assertValidJSONResponse(assert, resp)

	var body galleryReorderOutput
	decodeBody(t, resp, &body)
	assert.True(body.Success)
	assert.Equal([]string{"c", "a", "b"}, body.Items.IDs())

	items, err := tc.store.List(context.Background())
	assert.NoError(err)
	assert.Equal(body.Items, items)
}

func TestReorderGalleryItemsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		message string
	}{
		{name: "not an array", body: `{"orderedIds":"a,b,c"}`, message: "invalid request body"},
		{name: "missing", body: map[string]string{}, message: "missing required fields: orderedIds"},
		{name: "empty", body: map[string][]string{"orderedIds": {}}, message: galleryMessages["OrderedIDs"]},
		{name: "too few", body: map[string][]string{"orderedIds": {"a", "b"}}, message: invalidOrderMessage},
		{name: "unknown id", body: map[string][]string{"orderedIds": {"a", "b", "x"}}, message: invalidOrderMessage},
		{name: "duplicate", body: map[string][]string{"orderedIds": {"a", "a", "b"}}, message: invalidOrderMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, tc := setupTest(t, seedItems())

			resp := tc.admin(t, http.MethodPut, tt.body)
			assertErrorResponse(t, assert, resp, http.StatusBadRequest, tt.message)

			items, err := tc.store.List(context.Background())
			assert.NoError(err)
			assert.Equal([]string{"a", "b", "c"}, items.IDs())
		})
	}
}
