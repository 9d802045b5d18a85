package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkclothing/bk-site/service/emails"
	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/util"
)

const (
	testAdminPassword = "correct-horse-battery"
	testOwnerEmail    = "owner@example.com"
	testSiteURL       = "https://test.bkclothing.lk"
)

var errBackendDown = errors.New("backend down")

type testConfig struct {
	server    *httptest.Server
	serverURL string
	store     *gallery.Store
	sender    *recordingSender
}

type recordingSender struct {
	mu   sync.Mutex
	sent []emails.Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg emails.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []emails.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emails.Message(nil), r.sent...)
}

// brokenAdapter fails the operations it has errors for and otherwise defers to the wrapped adapter.
type brokenAdapter struct {
	gallery.Adapter
	loadErr  error
	storeErr error
}

func (b brokenAdapter) Load(ctx context.Context) (gallery.Collection, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.Adapter.Load(ctx)
}

func (b brokenAdapter) Store(ctx context.Context, items gallery.Collection) error {
	if b.storeErr != nil {
		return b.storeErr
	}
	return b.Adapter.Store(ctx, items)
}

func setDefaultsForTest() {
	viper.Set("ENV", "local")
	viper.Set("ADMIN_PASSWORD", testAdminPassword)
	viper.Set("SITE_URL", testSiteURL)
	viper.Set("CONTACT_TO_EMAIL", testOwnerEmail)
	viper.Set("CONTACT_AUTOREPLY", false)
	viper.Set("CONTACT_RATE_LIMIT", 100)
	viper.Set("CONTACT_RATE_WINDOW_SECS", 600)
	viper.Set("REDIS_URL", "")
	viper.Set("IMGIX_DOMAIN", "")
}

func seedItems() gallery.Collection {
	return gallery.Collection{
		{ID: "a", ImageURL: "https://cdn.example.com/a.jpg", Category: gallery.CategoryFormal, Title: "Linen Shirt"},
		{ID: "b", ImageURL: "https://cdn.example.com/b.jpg", Category: gallery.CategoryCasual, Title: "Denim Jeans"},
		{ID: "c", ImageURL: "https://cdn.example.com/c.jpg", Category: gallery.CategoryInners},
	}
}

func newFileAdapter(t *testing.T, seed gallery.Collection) gallery.Adapter {
	t.Helper()
	adapter := gallery.NewFileAdapter(filepath.Join(t.TempDir(), "gallery.json"))
	if seed != nil {
		require.NoError(t, adapter.Store(context.Background(), seed))
	}
	return adapter
}

// setupTest starts a server backed by a gallery file in a temp dir holding seed.
func setupTest(t *testing.T, seed gallery.Collection) (*assert.Assertions, *testConfig) {
	return setupTestWithAdapter(t, newFileAdapter(t, seed))
}

func setupTestWithAdapter(t *testing.T, adapter gallery.Adapter) (*assert.Assertions, *testConfig) {
	t.Helper()
	setDefaultsForTest()
	return startTestServer(t, adapter)
}

// setupTestWithLimit starts a server with an empty gallery that accepts limit contact submissions
// per client.
func setupTestWithLimit(t *testing.T, limit int) (*assert.Assertions, *testConfig) {
	t.Helper()
	setDefaultsForTest()
	viper.Set("CONTACT_RATE_LIMIT", limit)
	return startTestServer(t, newFileAdapter(t, nil))
}

func startTestServer(t *testing.T, adapter gallery.Adapter) (*assert.Assertions, *testConfig) {
	store := gallery.NewStore(adapter)
	sender := &recordingSender{}
	ts := httptest.NewServer(CoreInit(store, sender))
	t.Cleanup(ts.Close)

	return assert.New(t), &testConfig{
		server:    ts,
		serverURL: ts.URL,
		store:     store,
		sender:    sender,
	}
}

func (tc *testConfig) do(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		byt, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(byt)
	}

	req, err := http.NewRequest(method, tc.serverURL+path, r)
	require.NoError(t, err)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (tc *testConfig) admin(t *testing.T, method string, body any) *http.Response {
	return tc.do(t, method, "/api/admin/gallery", body, map[string]string{"X-Admin-Password": testAdminPassword})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	byt, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(byt)
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func assertValidJSONResponse(assert *assert.Assertions, resp *http.Response) {
	assert.Equal(http.StatusOK, resp.StatusCode, "Status should be 200")
	assertJSONContentType(assert, resp)
}

func assertJSONContentType(assert *assert.Assertions, resp *http.Response) {
	assert.Equal("application/json; charset=utf-8", resp.Header.Get("Content-Type"), "Response should be in JSON")
}

func assertErrorResponse(t *testing.T, assert *assert.Assertions, resp *http.Response, status int, message string) {
	t.Helper()
	assert.Equal(status, resp.StatusCode)
	assertJSONContentType(assert, resp)

	var body util.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(message, body.Error)
}
