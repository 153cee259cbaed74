package server

import (
	"bytes"
	"errors"
	"net/http"

	"oli-admin/internal/auth"
	"oli-admin/internal/blob"
	"oli-admin/internal/console"
	"oli-admin/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	consoleCookie = "oli_console"
	tokenCookie   = "oli_session"
)

type consoleHandler func(w http.ResponseWriter, r *http.Request, cs *consoleSession)

// withConsole resolves the browser's console, revalidates its session and
// runs next with the console locked.
func (s *Server) withConsole(next consoleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs := s.consoleFor(w, r)

		cs.mu.Lock()
		defer cs.mu.Unlock()

		if err := cs.client.Refresh(r.Context()); err != nil {
			s.logger.Warn("Session check failed", zap.String("console", cs.id), zap.Error(err))
		}
		next(w, r, cs)
	}
}

// action runs fn and redirects back to the dashboard. Guarded actions are
// skipped unless an operator is signed in.
func (s *Server) action(fn func(r *http.Request, cs *consoleSession), guarded bool) http.HandlerFunc {
	return s.withConsole(func(w http.ResponseWriter, r *http.Request, cs *consoleSession) {
		if !guarded || cs.client.CurrentUser() != nil {
			fn(r, cs)
		}

		if cs.view.reloaded {
			s.consoles.remove(cs.id)
			s.setCookie(w, consoleCookie, "")
		}
		s.syncTokenCookie(w, r, cs)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

func (s *Server) consoleFor(w http.ResponseWriter, r *http.Request) *consoleSession {
	if c, err := r.Cookie(consoleCookie); err == nil {
		if cs := s.consoles.get(c.Value); cs != nil {
			return cs
		}
	}

	ctx := r.Context()
	cs := &consoleSession{
		id:     uuid.NewString(),
		client: s.auth.NewClient(),
		view:   newPageView(),
	}
	if c, err := r.Cookie(tokenCookie); err == nil && c.Value != "" {
		if err := cs.client.Restore(ctx, c.Value); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
			s.logger.Warn("Failed to restore session", zap.Error(err))
		}
	}
	cs.ctl = console.NewController(console.Deps{
		Identity:         cs.client,
		Store:            s.store,
		Blobs:            s.blobs,
		Importer:         s.importer,
		Renderer:         s.renderer,
		View:             cs.view,
		Logger:           s.logger.With(zap.String("console", cs.id)),
		PlaceholderImage: s.opts.PlaceholderImage,
	})
	cs.ctl.Start(ctx)

	s.consoles.add(cs)
	s.setCookie(w, consoleCookie, cs.id)
	return cs
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

func (s *Server) syncTokenCookie(w http.ResponseWriter, r *http.Request, cs *consoleSession) {
	token := cs.client.Token()
	current := ""
	if c, err := r.Cookie(tokenCookie); err == nil {
		current = c.Value
	}
	if token != current {
		s.setCookie(w, tokenCookie, token)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, cs *consoleSession) {
	s.syncTokenCookie(w, r, cs)

	// Every page load shows the stores as they are now.
	if cs.client.CurrentUser() != nil {
		if err := cs.ctl.RenderTables(r.Context()); err != nil {
			s.logger.Warn("Failed to refresh tables", zap.String("console", cs.id), zap.Error(err))
		}
	}

	v := cs.view
	data := pageData{
		SignedIn:          v.screen == console.ScreenDashboard,
		Tab:               v.tab,
		NavProduct:        v.navFor(console.TabProducts).Active,
		NavBlog:           v.navFor(console.TabBlog).Active,
		LoginError:        v.loginError,
		LoginButton:       *v.loginButton,
		ItemsTable:        v.tables[model.KindItem],
		ArticlesTable:     v.tables[model.KindArticle],
		ItemModal:         v.modals[model.KindItem],
		ArticleModal:      v.modals[model.KindArticle],
		ItemForm:          v.itemForm,
		ArticleForm:       v.articleForm,
		Categories:        s.selectCategory(v.itemForm.Category),
		SaveItemButton:    *v.saveItemButton,
		SaveArticleButton: *v.saveArticleButton,
		Alerts:            v.takeAlerts(),
	}
	if op := cs.client.CurrentUser(); op != nil {
		data.Operator = op.Email
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.page.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("Template error", zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// selectCategory copies the category options with current marked as selected.
// A category without a label is kept as an extra option so saving does not change it.
func (s *Server) selectCategory(current string) []categoryOption {
	opts := make([]categoryOption, len(s.categories), len(s.categories)+1)
	found := false
	for i, o := range s.categories {
		o.Selected = o.Value == current
		found = found || o.Selected
		opts[i] = o
	}
	if current != "" && !found {
		opts = append(opts, categoryOption{Value: current, Label: current, Selected: true})
	}
	return opts
}

func (s *Server) handleLogin(r *http.Request, cs *consoleSession) {
	err := cs.ctl.Login(r.Context(), cs.view.loginButton, r.FormValue("email"), r.FormValue("password"))
	s.logOutcome("login", err)
}

func (s *Server) handleLogout(r *http.Request, cs *consoleSession) {
	s.logOutcome("logout", cs.ctl.Logout(r.Context()))
}

func (s *Server) handleTab(r *http.Request, cs *consoleSession) {
	tab := console.Tab(mux.Vars(r)["tab"])
	if tab != console.TabProducts && tab != console.TabBlog {
		return
	}
	cs.ctl.SwitchTab(tab, cs.view.navFor(tab))
}

func (s *Server) handleCloseModals(r *http.Request, cs *consoleSession) {
	cs.ctl.CloseModals()
}

func (s *Server) handleItemNew(r *http.Request, cs *consoleSession) {
	cs.ctl.OpenItemCreate()
}

func (s *Server) handleItemEdit(r *http.Request, cs *consoleSession) {
	cs.ctl.OpenItemEdit(mux.Vars(r)["id"])
}

func (s *Server) handleItemSave(r *http.Request, cs *consoleSession) {
	fields, err := s.readFields(r)
	if err != nil {
		cs.view.Alert(console.MsgErrorPrefix + err.Error())
		return
	}
	defer fields.close()

	form, err := console.ReadItemForm(fields)
	if err != nil {
		cs.view.Alert(console.MsgErrorPrefix + err.Error())
		return
	}
	s.logOutcome("save item", cs.ctl.SaveItem(r.Context(), cs.view.saveItemButton, form))
}

func (s *Server) handleItemDelete(r *http.Request, cs *consoleSession) {
	s.logOutcome("delete item", cs.ctl.DeleteItem(r.Context(), mux.Vars(r)["id"], formConfirm(r)))
}

func (s *Server) handleArticleNew(r *http.Request, cs *consoleSession) {
	cs.ctl.OpenArticleCreate()
}

func (s *Server) handleArticleEdit(r *http.Request, cs *consoleSession) {
	cs.ctl.OpenArticleEdit(mux.Vars(r)["id"])
}

func (s *Server) handleArticleImport(r *http.Request, cs *consoleSession) {
	s.logOutcome("import article", cs.ctl.OpenArticleImport(r.FormValue("url")))
}

func (s *Server) handleArticleSave(r *http.Request, cs *consoleSession) {
	fields, err := s.readFields(r)
	if err != nil {
		cs.view.Alert(console.MsgErrorPrefix + err.Error())
		return
	}
	defer fields.close()

	form, err := console.ReadArticleForm(fields)
	if err != nil {
		cs.view.Alert(console.MsgErrorPrefix + err.Error())
		return
	}
	s.logOutcome("save article", cs.ctl.SaveArticle(r.Context(), cs.view.saveArticleButton, form))
}

func (s *Server) handleArticleDelete(r *http.Request, cs *consoleSession) {
	s.logOutcome("delete article", cs.ctl.DeleteArticle(r.Context(), mux.Vars(r)["id"], formConfirm(r)))
}

// formConfirm reads the answer the page script stored before submitting.
func formConfirm(r *http.Request) console.Confirm {
	return func(prompt string) bool {
		return r.FormValue("confirm") == "yes"
	}
}

// logOutcome records errors the controller has already reported to the operator.
func (s *Server) logOutcome(op string, err error) {
	if err == nil {
		return
	}
	var vErr *console.ValidationError
	if errors.As(err, &vErr) {
		s.logger.Debug("Rejected input", zap.String("op", op), zap.String("reason", vErr.Message))
		return
	}
	s.logger.Warn("Console operation failed", zap.String("op", op), zap.Error(err))
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	b, err := s.blobs.Open(r.Context(), mux.Vars(r)["path"])
	if errors.Is(err, blob.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("Failed to open blob", zap.Error(err))
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}

	if b.ContentType != "" {
		w.Header().Set("Content-Type", b.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, b.Path, b.UploadedAt, bytes.NewReader(b.Data))
}
