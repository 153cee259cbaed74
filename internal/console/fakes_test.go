package console

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	"testing"
	"time"

	"oli-admin/internal/importer"
	"oli-admin/internal/model"
	"oli-admin/internal/render"
	"oli-admin/internal/store"

	"go.uber.org/zap"
)

const testPlaceholder = "/static/placeholder.svg"

type fakeIdentity struct {
	user      *model.Operator
	signInErr error
	signIns   int
	listeners []func(context.Context, *model.Operator)
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) error {
	f.signIns++
	if f.signInErr != nil {
		return f.signInErr
	}
	f.user = &model.Operator{Email: email}
	f.notify(ctx)
	return nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.user = nil
	f.notify(ctx)
	return nil
}

func (f *fakeIdentity) OnAuthStateChanged(ctx context.Context, fn func(context.Context, *model.Operator)) func() {
	f.listeners = append(f.listeners, fn)
	fn(ctx, f.user)
	return func() { f.listeners = nil }
}

func (f *fakeIdentity) notify(ctx context.Context) {
	for _, l := range f.listeners {
		l(ctx, f.user)
	}
}

// fakeStore is an in-memory document service that records every call.
type fakeStore struct {
	snap     store.Snapshot
	fetchErr error
	opErr    error
	nextID   int
	calls    []string
	onWrite  func()

	created        []model.Item
	createdArticle []model.Article
}

func (f *fakeStore) FetchAll(ctx context.Context) (store.Snapshot, error) {
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return store.Snapshot{}, f.fetchErr
	}
	snap := store.Snapshot{
		Items:    append([]model.Item{}, f.snap.Items...),
		Articles: append([]model.Article{}, f.snap.Articles...),
	}
	return snap, nil
}

func (f *fakeStore) write(call string) error {
	f.calls = append(f.calls, call)
	if f.onWrite != nil {
		f.onWrite()
	}
	return f.opErr
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) CreateItem(ctx context.Context, item model.Item) (string, error) {
	if err := f.write("create-item"); err != nil {
		return "", err
	}
	f.created = append(f.created, item)
	item.ID = f.id()
	f.snap.Items = append(f.snap.Items, item)
	return item.ID, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, id string, item model.Item) error {
	if err := f.write("update-item:" + id); err != nil {
		return err
	}
	for i := range f.snap.Items {
		if f.snap.Items[i].ID == id {
			item.ID = id
			f.snap.Items[i] = item
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteItem(ctx context.Context, id string) error {
	if err := f.write("delete-item:" + id); err != nil {
		return err
	}
	kept := f.snap.Items[:0]
	for _, it := range f.snap.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	f.snap.Items = kept
	return nil
}

func (f *fakeStore) CreateArticle(ctx context.Context, a model.Article) (string, error) {
	if err := f.write("create-article"); err != nil {
		return "", err
	}
	f.createdArticle = append(f.createdArticle, a)
	a.ID = f.id()
	f.snap.Articles = append(f.snap.Articles, a)
	return a.ID, nil
}

func (f *fakeStore) UpdateArticle(ctx context.Context, id string, a model.Article) error {
	if err := f.write("update-article:" + id); err != nil {
		return err
	}
	for i := range f.snap.Articles {
		if f.snap.Articles[i].ID == id {
			a.ID = id
			f.snap.Articles[i] = a
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteArticle(ctx context.Context, id string) error {
	if err := f.write("delete-article:" + id); err != nil {
		return err
	}
	kept := f.snap.Articles[:0]
	for _, a := range f.snap.Articles {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.snap.Articles = kept
	return nil
}

// writes counts calls other than fetches.
func (f *fakeStore) writes() int {
	n := 0
	for _, c := range f.calls {
		if c != "fetch" {
			n++
		}
	}
	return n
}

type fakeBlobs struct {
	paths    []string
	contents []string
	err      error
}

func (f *fakeBlobs) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, _ := io.ReadAll(r)
	f.paths = append(f.paths, path)
	f.contents = append(f.contents, string(data))
	return "/media/" + path, nil
}

type fakeImporter struct {
	draft importer.Draft
	err   error
}

func (f *fakeImporter) Import(rawURL string) (importer.Draft, error) {
	return f.draft, f.err
}

type fakeView struct {
	screen      Screen
	tab         Tab
	navCleared  int
	loginError  bool
	tables      map[model.Kind]template.HTML
	modals      map[model.Kind]bool
	itemForm    ItemForm
	articleForm ArticleForm
	alerts      []string
	reloads     int
}

func newFakeView() *fakeView {
	return &fakeView{
		screen: -1,
		tables: map[model.Kind]template.HTML{},
		modals: map[model.Kind]bool{},
	}
}

func (v *fakeView) ShowScreen(s Screen) { v.screen = s }
func (v *fakeView) ShowTab(t Tab) { v.tab = t }
func (v *fakeView) ClearActiveNav() { v.navCleared++ }
func (v *fakeView) SetLoginError(visible bool) { v.loginError = visible }
func (v *fakeView) SetTable(k model.Kind, b template.HTML) { v.tables[k] = b }
func (v *fakeView) ShowModal(k model.Kind) { v.modals[k] = true }
func (v *fakeView) HideModals() { v.modals = map[model.Kind]bool{} }
func (v *fakeView) FillItemForm(f ItemForm) { v.itemForm = f }
func (v *fakeView) FillArticleForm(f ArticleForm) { v.articleForm = f }
func (v *fakeView) Alert(msg string) { v.alerts = append(v.alerts, msg) }
func (v *fakeView) Reload() { v.reloads++ }

func (v *fakeView) table(k model.Kind) string { return string(v.tables[k]) }

type fakeControl struct {
	disabled bool
	label    string
	history  []string
}

func (c *fakeControl) SetDisabled(d bool) {
	c.disabled = d
	if d {
		c.history = append(c.history, "disable")
	} else {
		c.history = append(c.history, "enable")
	}
}

func (c *fakeControl) SetLabel(l string) { c.label = l }

type fakeNav struct{ active bool }

func (n *fakeNav) SetActive(a bool) { n.active = a }

type fakeFields struct {
	values map[string]string
	files  map[string]*Upload
}

func (f fakeFields) Value(name string) string { return f.values[name] }

func (f fakeFields) File(name string) (*Upload, error) {
	return f.files[name], nil
}

type harness struct {
	ctl      *Controller
	identity *fakeIdentity
	store    *fakeStore
	blobs    *fakeBlobs
	importer *fakeImporter
	view     *fakeView
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		identity: &fakeIdentity{},
		store:    &fakeStore{},
		blobs:    &fakeBlobs{},
		importer: &fakeImporter{},
		view:     newFakeView(),
	}
	h.ctl = NewController(Deps{
		Identity:         h.identity,
		Store:            h.store,
		Blobs:            h.blobs,
		Importer:         h.importer,
		Renderer:         render.NewHTMLRenderer(render.Labels{"fruit": "Fruits"}, render.GroupedPrice("FCFA"), testPlaceholder),
		View:             h.view,
		Logger:           zap.NewNop(),
		PlaceholderImage: testPlaceholder,
	})
	h.ctl.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return h
}

func intPtr(n int) *int { return &n }

func rows(body string) int { return strings.Count(body, "<tr ") }
