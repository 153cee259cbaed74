package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"oli-admin/internal/auth"
	"oli-admin/internal/blob"
	"oli-admin/internal/importer"
	"oli-admin/internal/model"
	"oli-admin/internal/render"
	"oli-admin/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testEmail    = "admin@oli.test"
	testPassword = "s3cret"
)

type testEnv struct {
	srv    *Server
	ts     *httptest.Server
	client *http.Client
	store  *store.BadgerStore
	blobs  *blob.BadgerStore
	mr     *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	authSvc := auth.NewService(rdb, time.Hour, zap.NewNop())
	require.NoError(t, authSvc.AddOperator(ctx, testEmail, testPassword))

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.NewBadgerStore(db, zap.NewNop())
	blobs := blob.NewBadgerStore(db, "/media/", 1<<20, zap.NewNop())
	labels := render.Labels{"fruit": "Fruits", "veg": "Légumes"}
	renderer := render.NewHTMLRenderer(labels, render.GroupedPrice("FCFA"), "/static/placeholder.svg")

	srv, err := NewServer(authSvc, st, blobs, importer.New(zap.NewNop()), renderer, zap.NewNop(), Options{
		PlaceholderImage: "/static/placeholder.svg",
		MaxUploadBytes:   1 << 20,
		Labels:           labels,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.consoles.closeAll)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		srv:    srv,
		ts:     ts,
		client: &http.Client{Jar: jar},
		store:  st,
		blobs:  blobs,
		mr:     mr,
	}
}

func (e *testEnv) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return string(body)
}

// post submits a form and returns the page rendered after the redirect.
func (e *testEnv) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := e.client.PostForm(e.ts.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return string(body)
}

type upload struct {
	field, filename, content string
}

func (e *testEnv) postMultipart(t *testing.T, path string, fields map[string]string, files ...upload) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := e.client.Post(e.ts.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return string(body)
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	return e.post(t, "/login", url.Values{"email": {testEmail}, "password": {testPassword}})
}

func (e *testEnv) sessionCookie() string {
	u, _ := url.Parse(e.ts.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == tokenCookie {
			return c.Value
		}
	}
	return ""
}

func TestServer_IndexShowsLogin(t *testing.T) {
	env := newTestEnv(t)

	body := env.get(t, "/")
	assert.Contains(t, body, `id="auth-screen"`)
	assert.NotContains(t, body, `id="dashboard"`)
	assert.Contains(t, body, `id="login-error" class="error" hidden`)
	assert.Contains(t, body, ">Connexion</button>")
}

func TestServer_Login(t *testing.T) {
	env := newTestEnv(t)

	body := env.post(t, "/login", url.Values{"email": {testEmail}, "password": {"wrong"}})
	assert.Contains(t, body, `id="auth-screen"`)
	assert.Contains(t, body, `id="login-error" class="error">`)
	assert.Contains(t, body, ">Connexion</button>")
	assert.Empty(t, env.sessionCookie())

	body = env.login(t)
	assert.Contains(t, body, `id="dashboard"`)
	assert.Contains(t, body, testEmail)
	assert.Contains(t, body, "Aucun produit.")
	assert.Contains(t, body, "Aucun article.")
	assert.NotEmpty(t, env.sessionCookie())
}

func TestServer_SessionSurvivesNewConsole(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	token := env.sessionCookie()

	// A fresh browser tab without the console cookie restores from the session cookie
	u, _ := url.Parse(env.ts.URL)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: tokenCookie, Value: token, Path: "/"}})
	env.client = &http.Client{Jar: jar}

	body := env.get(t, "/")
	assert.Contains(t, body, `id="dashboard"`)
}

func TestServer_ExpiredSessionSignsOut(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	env.mr.FastForward(2 * time.Hour)

	body := env.get(t, "/")
	assert.Contains(t, body, `id="auth-screen"`)
	assert.Empty(t, env.sessionCookie())
	// The login button is usable again
	assert.Contains(t, body, `<button id="login-btn" type="submit">Connexion</button>`)

	body = env.login(t)
	assert.Contains(t, body, `id="dashboard"`)
}

func TestServer_IndexRefetches(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	// Written behind the console's back, e.g. by another operator or a seed run
	_, err := env.store.CreateItem(context.Background(), model.Item{Name: "Mango", Category: "fruit", Price: 300})
	require.NoError(t, err)

	body := env.get(t, "/")
	assert.Contains(t, body, "Mango")
	assert.NotContains(t, body, "Aucun produit.")
}

func TestServer_SaveItem(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	body := env.post(t, "/products/new", nil)
	assert.Contains(t, body, `id="product-modal" class="admin-modal active"`)

	body = env.postMultipart(t, "/products/save", map[string]string{
		"p-id":       "",
		"p-name":     "Apple",
		"p-category": "fruit",
		"p-price":    "150",
		"p-unit":     "kg",
		"p-image":    "",
	})
	assert.Contains(t, body, `id="product-modal" class="admin-modal"`)
	assert.Contains(t, body, "Apple")
	assert.Contains(t, body, "Fruits")
	assert.Contains(t, body, "150 FCFA")
	assert.NotContains(t, body, "Aucun produit.")

	snap, err := env.store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Apple", snap.Items[0].Name)
	assert.Equal(t, 150, snap.Items[0].Price)
	assert.Equal(t, "/static/placeholder.svg", snap.Items[0].Image)
	assert.Contains(t, body, `data-id="`+snap.Items[0].ID+`"`)
}

func TestServer_SaveItemRequiresNameAndPrice(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.post(t, "/products/new", nil)

	body := env.postMultipart(t, "/products/save", map[string]string{"p-name": "Apple"})
	assert.Contains(t, body, `data-alert="Nom et Prix requis"`)
	// The modal stays open for correction
	assert.Contains(t, body, `id="product-modal" class="admin-modal active"`)

	snap, err := env.store.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)

	// Alerts are shown once
	body = env.get(t, "/")
	assert.NotContains(t, body, "data-alert=")
}

func TestServer_SaveArticleWithUpload(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.post(t, "/tab/blog", nil)

	body := env.postMultipart(t, "/blog/save", map[string]string{
		"b-title": "Harvest notes",
		"b-tag":   "news",
		"b-desc":  "Mangoes are in.",
	}, upload{field: "b-file", filename: "cover.png", content: "PNGDATA"})
	assert.Contains(t, body, "Harvest notes")
	assert.NotContains(t, body, `id="view-blog" hidden`)

	snap, err := env.store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Articles, 1)
	img := snap.Articles[0].Image
	assert.Regexp(t, regexp.MustCompile(`^/media/blog/\d+_cover\.png$`), img)

	assert.Equal(t, "PNGDATA", env.get(t, img))
}

func TestServer_EditItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.store.CreateItem(ctx, model.Item{Name: "Apple", Category: "fruit", Price: 150, Unit: "kg", Image: "/a.png"})
	require.NoError(t, err)
	env.login(t)

	body := env.post(t, "/products/"+id+"/edit", nil)
	assert.Contains(t, body, `id="p-id" name="p-id" value="`+id+`"`)
	assert.Contains(t, body, `value="150"`)
	assert.Contains(t, body, `<option value="fruit" selected>Fruits</option>`)

	env.postMultipart(t, "/products/save", map[string]string{
		"p-id": id, "p-name": "Green apple", "p-category": "fruit", "p-price": "200", "p-unit": "kg", "p-image": "/a.png",
	})
	snap, err := env.store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Green apple", snap.Items[0].Name)
	assert.Equal(t, "/a.png", snap.Items[0].Image)
}

func TestServer_EditKeepsUnlabelledCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.store.CreateItem(ctx, model.Item{Name: "Shea butter", Category: "other", Price: 500})
	require.NoError(t, err)
	env.login(t)

	body := env.post(t, "/products/"+id+"/edit", nil)
	assert.Contains(t, body, `<option value="other" selected>other</option>`)
	assert.NotContains(t, body, `<option value="fruit" selected>`)
}

func TestServer_GuardedActionsNeedLogin(t *testing.T) {
	env := newTestEnv(t)

	body := env.postMultipart(t, "/products/save", map[string]string{"p-name": "Apple", "p-price": "150"})
	assert.Contains(t, body, `id="auth-screen"`)

	snap, err := env.store.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestServer_DeleteNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.store.CreateItem(ctx, model.Item{Name: "Apple", Price: 150})
	require.NoError(t, err)
	env.login(t)

	env.post(t, "/products/"+id+"/delete", nil)
	snap, err := env.store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 1)

	body := env.post(t, "/products/"+id+"/delete", url.Values{"confirm": {"yes"}})
	snap, err = env.store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Contains(t, body, "Aucun produit.")
}

func TestServer_TabSwitch(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	body := env.post(t, "/tab/blog", nil)
	assert.Contains(t, body, `id="view-products" hidden`)
	assert.Contains(t, body, `class="nav-item active" type="submit">Blog`)

	// Unknown tabs leave the page as it was
	body = env.post(t, "/tab/orders", nil)
	assert.Contains(t, body, `id="view-products" hidden`)
}

func TestServer_Media(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.blobs.Upload(context.Background(), "products/1_apple.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)

	resp, err := env.client.Get(env.ts.URL + "/media/products/1_apple.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	missing, err := env.client.Get(env.ts.URL + "/media/products/none.png")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_StaticPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	body := env.get(t, "/static/placeholder.svg")
	assert.Contains(t, body, "<svg")
}

func TestServer_LogoutDropsConsole(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	token := env.sessionCookie()
	require.NotEmpty(t, token)

	body := env.post(t, "/logout", nil)
	assert.Contains(t, body, `id="auth-screen"`)
	assert.Empty(t, env.sessionCookie())
	assert.False(t, env.mr.Exists("session:"+token))
	// Only the console created by the reload remains
	assert.Equal(t, 1, env.srv.consoles.len())
}
