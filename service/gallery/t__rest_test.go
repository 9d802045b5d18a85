package gallery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bkclothing/bk-site/service/restkv"
)

// fakeKV mimics the REST key-value API closely enough for the adapter.
type fakeKV struct {
	mu       sync.Mutex
	values   map[string]string
	sets     int
	failSets bool
}

func newFakeKV(t *testing.T) (*fakeKV, *restkv.Client) {
	kv, url := newFakeKVServer(t)
	return kv, restkv.NewClient(url, "token", nil)
}

func newFakeKVServer(t *testing.T) (*fakeKV, string) {
	kv := &fakeKV{values: map[string]string{}}
	srv := httptest.NewServer(kv)
	t.Cleanup(srv.Close)
	return kv, srv.URL
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer token" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if len(parts) != 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch parts[0] {
	case "get":
		v, ok := f.values[parts[1]]
		if !ok {
			json.NewEncoder(w).Encode(map[string]interface{}{"result": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"result": v})
	case "set":
		if f.failSets {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "write failed"})
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.values[parts[1]] = string(body)
		f.sets++
		json.NewEncoder(w).Encode(map[string]string{"result": "OK"})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func writeSeed(t *testing.T, items Collection) string {
	data, err := Encode(items)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRESTAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store without seed loads empty", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		r := NewRESTAdapter(client, "gallery", filepath.Join(t.TempDir(), "missing.json"))

		items, err := r.Load(ctx)
		assert.NoError(err)
		assert.Empty(items)
		assert.Equal(0, kv.sets)
	})

	t.Run("empty store is seeded once", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		r := NewRESTAdapter(client, "gallery", writeSeed(t, seedItems()))

		items, err := r.Load(ctx)
		assert.NoError(err)
		assert.Equal(seedItems(), items)
		assert.Equal(1, kv.sets)

		items, err = r.Load(ctx)
		assert.NoError(err)
		assert.Equal(seedItems(), items)
		assert.Equal(1, kv.sets)
	})

	t.Run("existing value is not replaced by the seed", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		kv.values["gallery"] = "[]"
		r := NewRESTAdapter(client, "gallery", writeSeed(t, seedItems()))

		items, err := r.Load(ctx)
		assert.NoError(err)
		assert.Empty(items)
		assert.Equal(0, kv.sets)
	})

	t.Run("seed is returned even if it cannot be written", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		kv.failSets = true
		r := NewRESTAdapter(client, "gallery", writeSeed(t, seedItems()))

		items, err := r.Load(ctx)
		assert.NoError(err)
		assert.Equal(seedItems(), items)
	})

	t.Run("corrupt value loads empty", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		kv.values["gallery"] = "not json"
		r := NewRESTAdapter(client, "gallery", "")

		items, err := r.Load(ctx)
		assert.NoError(err)
		assert.Empty(items)
	})

	t.Run("write failure is returned", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		kv.failSets = true
		r := NewRESTAdapter(client, "gallery", "")

		assert.Error(r.Store(ctx, seedItems()))
	})

	t.Run("bad credentials fail the read", func(t *testing.T) {
		assert := setupTest(t)
		_, url := newFakeKVServer(t)
		r := NewRESTAdapter(restkv.NewClient(url, "wrong", nil), "gallery", "")

		_, err := r.Load(ctx)
		assert.Error(err)
	})

	t.Run("mutations go through the store", func(t *testing.T) {
		assert := setupTest(t)
		kv, client := newFakeKV(t)
		s := newTestStore(NewRESTAdapter(client, "gallery", writeSeed(t, seedItems())))

		deleted, err := s.Delete(ctx, "b")
		assert.NoError(err)
		assert.True(deleted)

		stored, err := Decode([]byte(kv.values["gallery"]))
		assert.NoError(err)
		assert.Equal([]string{"a", "c"}, stored.IDs())
	})
}
