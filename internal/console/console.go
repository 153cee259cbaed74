// Package console drives the admin dashboard: sign-in, the two editable tables,
// their edit dialogs and the create/update/delete round trips to the store.
//
// Presentation is reached only through View, Control and render.Renderer, so the
// same controller can sit behind server-rendered HTML or any other front end.
package console

import (
	"context"
	"html/template"
	"io"

	"oli-admin/internal/importer"
	"oli-admin/internal/model"
)

// Screen is the top-level page shown to the operator.
type Screen int

const (
	ScreenAuth Screen = iota
	ScreenDashboard
)

// Tab selects the dashboard section.
type Tab string

const (
	TabProducts Tab = "products"
	TabBlog     Tab = "blog"
)

// Identity is the external sign-in provider.
type Identity interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	// OnAuthStateChanged calls fn with the current operator (nil when signed out)
	// right away and after every change, until the returned func is called.
	OnAuthStateChanged(ctx context.Context, fn func(ctx context.Context, op *model.Operator)) func()
}

// Blobs stores uploaded images and returns their public URL.
type Blobs interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error)
}

// Importer builds an article draft from a web page.
type Importer interface {
	Import(rawURL string) (importer.Draft, error)
}

// View is everything the controller can change on screen.
type View interface {
	ShowScreen(s Screen)
	ShowTab(t Tab)
	ClearActiveNav()
	SetLoginError(visible bool)
	SetTable(kind model.Kind, body template.HTML)
	ShowModal(kind model.Kind)
	HideModals()
	FillItemForm(f ItemForm)
	FillArticleForm(f ArticleForm)
	// Alert is a blocking, user-facing notification.
	Alert(msg string)
	// Reload throws away all view state.
	Reload()
}

// Control is the button that triggered an operation.
type Control interface {
	SetDisabled(disabled bool)
	SetLabel(label string)
}

// NavItem is a navigation entry that can be highlighted.
type NavItem interface {
	SetActive(active bool)
}

// Confirm asks the operator a yes/no question.
type Confirm func(prompt string) bool

// State is the latest full snapshot of both collections.
type State struct {
	Items    []model.Item
	Articles []model.Article
}

// User-facing text.
const (
	LoginLabel     = "Connexion"
	LoginBusyLabel = "Connexion..."
	SaveLabel      = "Enregistrer"
	SaveBusyLabel  = "..."

	MsgItemRequired    = "Nom et Prix requis"
	MsgArticleRequired = "Titre requis"
	MsgErrorPrefix     = "Erreur: "
)
