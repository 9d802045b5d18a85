package restkv

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkclothing/bk-site/util"
)

const testToken = "secret-token"

// newFakeStore serves the get/set/del commands from a map.
func newFakeStore(t *testing.T) (*Client, map[string]string) {
	var mu sync.Mutex
	data := map[string]string{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}

		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		if len(parts) != 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		command, key := parts[0], parts[1]
		var res result
		switch command {
		case "get":
			if v, ok := data[key]; ok {
				res.Result = &v
			}
		case "set":
			body, _ := io.ReadAll(r.Body)
			data[key] = string(body)
			ok := "OK"
			res.Result = &ok
		case "del":
			delete(data, key)
			n := "1"
			res.Result = &n
		default:
			res.Error = "ERR unknown command " + command
		}
		json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(ts.Close)

	return NewClient(ts.URL+"/", testToken, ts.Client()), data
}

func TestSetGetDelete(t *testing.T) {
	assert := assert.New(t)
	c, data := newFakeStore(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "gallery")
	assert.True(util.ErrorAs[ErrKeyNotFound](err))

	assert.NoError(c.Set(ctx, "gallery", []byte(`[{"id":"a"}]`)))
	assert.Equal(`[{"id":"a"}]`, data["gallery"])

	got, err := c.Get(ctx, "gallery")
	assert.NoError(err)
	assert.Equal(`[{"id":"a"}]`, string(got))

	assert.NoError(c.Delete(ctx, "gallery"))
	_, err = c.Get(ctx, "gallery")
	assert.True(util.ErrorAs[ErrKeyNotFound](err))
}

func TestUnauthorized(t *testing.T) {
	assert := assert.New(t)
	c, _ := newFakeStore(t)
	c.token = "wrong"

	_, err := c.Get(context.Background(), "gallery")
	httpErr, ok := err.(util.ErrHTTP)
	if assert.True(ok, "expected an HTTP error, got %v", err) {
		assert.Equal(http.StatusUnauthorized, httpErr.Status)
	}
}

func TestCommandError(t *testing.T) {
	assert := assert.New(t)
	c, _ := newFakeStore(t)

	_, err := c.do(context.Background(), http.MethodPost, "flushall", "x", nil)
	assert.True(util.ErrorAs[ErrCommand](err))
}

func TestKeyIsEscaped(t *testing.T) {
	assert := assert.New(t)
	c, data := newFakeStore(t)

	assert.NoError(c.Set(context.Background(), "site gallery", []byte("[]")))
	_, ok := data["site gallery"]
	assert.True(ok)
}
