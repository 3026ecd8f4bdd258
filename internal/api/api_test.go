package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zigav/inventar/internal/auth"
	"github.com/zigav/inventar/internal/db"
	"github.com/zigav/inventar/internal/upload"
)

const testSecret = "test-secret"

type testEnv struct {
	server    *httptest.Server
	db        *sql.DB
	auth      *auth.Service
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := db.NewTestDB(t)
	authSvc := auth.NewService(testSecret, time.Hour, bcrypt.MinCost)
	uploadDir := t.TempDir()

	server := httptest.NewServer(NewRouter(database, authSvc, upload.NewStore(uploadDir)))
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: database, auth: authSvc, uploadDir: uploadDir}
}

// do sends a JSON request, optionally authenticated, and returns the
// response. Callers own the body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// decode reads and closes the response body into target.
func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

// signup registers a user and returns a login token.
func (e *testEnv) signup(t *testing.T, username string) string {
	t.Helper()

	resp := e.do(t, "POST", "/users/", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, "POST", "/token", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/users/", "", map[string]string{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user map[string]any
	decode(t, resp, &user)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	// Duplicate registration conflicts.
	resp = env.do(t, "POST", "/users/", "", map[string]string{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginGenericError(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	// Wrong password and unknown username must be indistinguishable.
	wrongPass := env.do(t, "POST", "/token", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, wrongPass.StatusCode)
	var bodyWrongPass map[string]string
	decode(t, wrongPass, &bodyWrongPass)

	unknownUser := env.do(t, "POST", "/token", "", map[string]string{
		"username": "nobody", "password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
	var bodyUnknownUser map[string]string
	decode(t, unknownUser, &bodyUnknownUser)

	assert.Equal(t, bodyWrongPass, bodyUnknownUser)
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/items/", "/statistics/"} {
		resp := env.do(t, "GET", path, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"), "path %s", path)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	// Same secret, near-zero lifetime.
	shortLived := auth.NewService(testSecret, time.Millisecond, bcrypt.MinCost)
	token, err := shortLived.IssueToken("alice")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	resp := env.do(t, "GET", "/items/", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenUnknownSubjectRejected(t *testing.T) {
	env := newTestEnv(t)

	// A valid token whose subject never registered.
	token, err := env.auth.IssueToken("ghost")
	require.NoError(t, err)

	resp := env.do(t, "GET", "/items/", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestItemRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	resp := env.do(t, "POST", "/categories/", "", map[string]string{"name": "Tools"})
	var category map[string]any
	decode(t, resp, &category)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	categoryID := int64(category["id"].(float64))

	resp = env.do(t, "POST", "/items/", token, map[string]any{
		"name": "Hammer", "quantity": 5, "category_id": categoryID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	decode(t, resp, &created)

	resp = env.do(t, "GET", "/items/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	decode(t, resp, &got)

	assert.Equal(t, "Hammer", got["name"])
	assert.Equal(t, float64(5), got["quantity"])
	assert.Equal(t, float64(categoryID), got["category_id"])
	assert.Nil(t, got["image_src"], "image_src must be null before any upload")
	assert.Equal(t, created["created_at"], got["created_at"])
}

func TestUpdateItemAdvancesUpdatedAt(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	resp := env.do(t, "POST", "/items/", token, map[string]any{"name": "Hammer", "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	decode(t, resp, &created)

	resp = env.do(t, "PUT", "/items/1", token, map[string]any{"name": "Hammer", "quantity": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]any
	decode(t, resp, &updated)

	assert.Equal(t, float64(7), updated["quantity"])

	before, err := time.Parse(time.RFC3339Nano, created["updated_at"].(string))
	require.NoError(t, err)
	after, err := time.Parse(time.RFC3339Nano, updated["updated_at"].(string))
	require.NoError(t, err)
	assert.True(t, after.After(before), "updated_at must advance: %v -> %v", before, after)
}

func TestOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.signup(t, "alice")
	bobToken := env.signup(t, "bob")

	resp := env.do(t, "POST", "/items/", aliceToken, map[string]any{"name": "Hammer", "quantity": 5})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Alice sees exactly her item.
	resp = env.do(t, "GET", "/items/", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var aliceItems []map[string]any
	decode(t, resp, &aliceItems)
	require.Len(t, aliceItems, 1)
	assert.Equal(t, "Hammer", aliceItems[0]["name"])
	assert.Equal(t, float64(5), aliceItems[0]["quantity"])

	// Bob sees nothing, and gets 404 (not 403) on direct access.
	resp = env.do(t, "GET", "/items/", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bobItems []map[string]any
	decode(t, resp, &bobItems)
	assert.Empty(t, bobItems)

	for _, tc := range []struct {
		method string
		body   any
	}{
		{"GET", nil},
		{"PUT", map[string]any{"name": "Stolen", "quantity": 0}},
		{"DELETE", nil},
	} {
		resp = env.do(t, tc.method, "/items/1", bobToken, tc.body)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "method %s", tc.method)
	}

	// Still intact for Alice.
	resp = env.do(t, "GET", "/items/1", aliceToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListItemsFilterQuery(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	resp := env.do(t, "POST", "/categories/", "", map[string]string{"name": "Tools"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, item := range []map[string]any{
		{"name": "Hammer", "quantity": 5, "category_id": 1},
		{"name": "Screwdriver", "quantity": 3, "category_id": 1},
		{"name": "Notebook", "quantity": 10},
	} {
		resp := env.do(t, "POST", "/items/", token, item)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var items []map[string]any
	resp = env.do(t, "GET", "/items/?category_id=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &items)
	assert.Len(t, items, 2)

	resp = env.do(t, "GET", "/items/?search=note", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Notebook", items[0]["name"])

	resp = env.do(t, "GET", "/items/?skip=1&limit=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Screwdriver", items[0]["name"])
}

func TestDanglingCategoryRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	resp := env.do(t, "POST", "/items/", token, map[string]any{
		"name": "Hammer", "quantity": 1, "category_id": 999,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatisticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	// Zero state: zeros and an empty list, not nulls.
	resp := env.do(t, "GET", "/statistics/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats map[string]any
	decode(t, resp, &stats)
	assert.Equal(t, float64(0), stats["total_items"])
	assert.Equal(t, float64(0), stats["total_quantity"])
	assert.Equal(t, []any{}, stats["categories"])

	resp = env.do(t, "POST", "/categories/", "", map[string]string{"name": "Tools"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	for _, item := range []map[string]any{
		{"name": "Hammer", "quantity": 5, "category_id": 1},
		{"name": "Notebook", "quantity": 2},
	} {
		resp := env.do(t, "POST", "/items/", token, item)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = env.do(t, "GET", "/statistics/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &stats)
	assert.Equal(t, float64(2), stats["total_items"])
	assert.Equal(t, float64(7), stats["total_quantity"])

	categories := stats["categories"].([]any)
	require.Len(t, categories, 1)
	breakdown := categories[0].(map[string]any)
	assert.Equal(t, "Tools", breakdown["category"])
	assert.Equal(t, float64(1), breakdown["item_count"])
	assert.Equal(t, float64(5), breakdown["total_quantity"])
}

// uploadFile posts a multipart file to an item's upload-image endpoint.
func (e *testEnv) uploadFile(t *testing.T, token, path, filename string, data []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	resp := env.do(t, "POST", "/items/", token, map[string]any{"name": "Hammer", "quantity": 1})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.uploadFile(t, token, "/items/1/upload-image", "hammer.bin", []byte("file contents"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "hammer.bin", body["filename"])

	// Bytes landed verbatim in the content area.
	stored, err := os.ReadFile(env.uploadDir + "/hammer.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("file contents"), stored)

	// And the item now references the filename.
	resp = env.do(t, "GET", "/items/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var item map[string]any
	decode(t, resp, &item)
	assert.Equal(t, "hammer.bin", item["image_src"])
}

func TestUploadImageThumbnail(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	resp := env.do(t, "POST", "/items/", token, map[string]any{"name": "Hammer", "quantity": 1})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// A real PNG gets a derived thumbnail next to the original.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))))

	resp = env.uploadFile(t, token, "/items/1/upload-image", "hammer.png", buf.Bytes())
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := os.Stat(env.uploadDir + "/hammer.png")
	assert.NoError(t, err)
	_, err = os.Stat(env.uploadDir + "/hammer.thumb.jpg")
	assert.NoError(t, err)
}

func TestUploadImageNotOwned(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.signup(t, "alice")
	bobToken := env.signup(t, "bob")

	resp := env.do(t, "POST", "/items/", aliceToken, map[string]any{"name": "Hammer", "quantity": 1})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.uploadFile(t, bobToken, "/items/1/upload-image", "evil.bin", []byte("data"))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Nothing may be written for a foreign item.
	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// image_src stays null.
	resp = env.do(t, "GET", "/items/1", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var item map[string]any
	decode(t, resp, &item)
	assert.Nil(t, item["image_src"])
}

func TestCategoriesArePublic(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/categories/", "", map[string]string{
		"name": "Tools", "description": "Hand tools",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate name conflicts.
	resp = env.do(t, "POST", "/categories/", "", map[string]string{"name": "Tools"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/categories/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []map[string]any
	decode(t, resp, &categories)
	require.Len(t, categories, 1)
	assert.Equal(t, "Tools", categories[0]["name"])
	assert.Equal(t, "Hand tools", categories[0]["description"])
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/healthz", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
