package server

import (
	"html/template"

	"oli-admin/internal/console"
	"oli-admin/internal/model"
)

// button is a submit control whose state survives until the next page render.
type button struct {
	Label    string
	Disabled bool
}

func (b *button) SetDisabled(disabled bool) { b.Disabled = disabled }
func (b *button) SetLabel(label string)     { b.Label = label }

type navItem struct {
	Active bool
}

func (n *navItem) SetActive(active bool) { n.Active = active }

// pageView is the server-side model of one browser's dashboard page.
// The controller mutates it and the index handler renders it.
type pageView struct {
	screen     console.Screen
	tab        console.Tab
	nav        map[console.Tab]*navItem
	loginError bool
	tables     map[model.Kind]template.HTML
	modals     map[model.Kind]bool

	itemForm    console.ItemForm
	articleForm console.ArticleForm

	loginButton       *button
	saveItemButton    *button
	saveArticleButton *button

	alerts   []string
	reloaded bool
}

func newPageView() *pageView {
	return &pageView{
		screen: console.ScreenAuth,
		tab:    console.TabProducts,
		nav: map[console.Tab]*navItem{
			console.TabProducts: {Active: true},
			console.TabBlog:     {},
		},
		tables:            map[model.Kind]template.HTML{},
		modals:            map[model.Kind]bool{},
		loginButton:       &button{Label: console.LoginLabel},
		saveItemButton:    &button{Label: console.SaveLabel},
		saveArticleButton: &button{Label: console.SaveLabel},
	}
}

func (v *pageView) ShowScreen(s console.Screen) { v.screen = s }
func (v *pageView) ShowTab(t console.Tab)       { v.tab = t }

func (v *pageView) ClearActiveNav() {
	for _, n := range v.nav {
		n.Active = false
	}
}

func (v *pageView) SetLoginError(visible bool) { v.loginError = visible }

func (v *pageView) SetTable(kind model.Kind, body template.HTML) { v.tables[kind] = body }

func (v *pageView) ShowModal(kind model.Kind) { v.modals[kind] = true }

func (v *pageView) HideModals() {
	for k := range v.modals {
		delete(v.modals, k)
	}
}

func (v *pageView) FillItemForm(f console.ItemForm)       { v.itemForm = f }
func (v *pageView) FillArticleForm(f console.ArticleForm) { v.articleForm = f }

func (v *pageView) Alert(msg string) { v.alerts = append(v.alerts, msg) }

// Reload marks the page for disposal; the session is dropped after the current request.
func (v *pageView) Reload() { v.reloaded = true }

func (v *pageView) navFor(tab console.Tab) *navItem {
	return v.nav[tab]
}

// takeAlerts returns pending alerts and clears them, so each is shown once.
func (v *pageView) takeAlerts() []string {
	alerts := v.alerts
	v.alerts = nil
	return alerts
}

type categoryOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	SignedIn   bool
	Operator   string
	Tab        console.Tab
	NavProduct bool
	NavBlog    bool

	LoginError  bool
	LoginButton button

	ItemsTable    template.HTML
	ArticlesTable template.HTML

	ItemModal         bool
	ArticleModal      bool
	ItemForm          console.ItemForm
	ArticleForm       console.ArticleForm
	Categories        []categoryOption
	SaveItemButton    button
	SaveArticleButton button

	Alerts []string
}
