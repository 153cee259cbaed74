package server

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"time"

	"oli-admin/internal/auth"
	"oli-admin/internal/blob"
	"oli-admin/internal/console"
	"oli-admin/internal/render"
	"oli-admin/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// BlobStore stores uploads and serves them back.
type BlobStore interface {
	console.Blobs
	Open(ctx context.Context, path string) (*blob.Blob, error)
}

// Options tune the HTTP layer.
type Options struct {
	PlaceholderImage string
	MaxUploadBytes   int64
	SecureCookies    bool
	Labels           render.Labels
}

type Server struct {
	auth     *auth.Service
	store    store.Store
	blobs    BlobStore
	importer console.Importer
	renderer render.Renderer
	logger   *zap.Logger
	opts     Options

	page       *template.Template
	categories []categoryOption
	consoles   *registry
	router     *mux.Router
	server     *http.Server
}

func NewServer(authSvc *auth.Service, st store.Store, blobs BlobStore, imp console.Importer, renderer render.Renderer, logger *zap.Logger, opts Options) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		auth:       authSvc,
		store:      st,
		blobs:      blobs,
		importer:   imp,
		renderer:   renderer,
		logger:     logger,
		opts:       opts,
		page:       page,
		categories: categoryOptions(opts.Labels),
		consoles:   newRegistry(),
		router:     mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	static, _ := fs.Sub(staticFS, "static")
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	s.router.HandleFunc("/media/{path:.+}", s.handleMedia).Methods("GET")

	s.router.HandleFunc("/", s.withConsole(s.handleIndex)).Methods("GET")
	s.router.HandleFunc("/login", s.action(s.handleLogin, false)).Methods("POST")
	s.router.HandleFunc("/logout", s.action(s.handleLogout, true)).Methods("POST")
	s.router.HandleFunc("/tab/{tab}", s.action(s.handleTab, true)).Methods("POST")
	s.router.HandleFunc("/modals/close", s.action(s.handleCloseModals, true)).Methods("POST")

	s.router.HandleFunc("/products/new", s.action(s.handleItemNew, true)).Methods("POST")
	s.router.HandleFunc("/products/save", s.action(s.handleItemSave, true)).Methods("POST")
	s.router.HandleFunc("/products/{id}/edit", s.action(s.handleItemEdit, true)).Methods("POST")
	s.router.HandleFunc("/products/{id}/delete", s.action(s.handleItemDelete, true)).Methods("POST")

	s.router.HandleFunc("/blog/new", s.action(s.handleArticleNew, true)).Methods("POST")
	s.router.HandleFunc("/blog/save", s.action(s.handleArticleSave, true)).Methods("POST")
	s.router.HandleFunc("/blog/import", s.action(s.handleArticleImport, true)).Methods("POST")
	s.router.HandleFunc("/blog/{id}/edit", s.action(s.handleArticleEdit, true)).Methods("POST")
	s.router.HandleFunc("/blog/{id}/delete", s.action(s.handleArticleDelete, true)).Methods("POST")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.consoles.closeAll()
	return err
}

func categoryOptions(labels render.Labels) []categoryOption {
	opts := make([]categoryOption, 0, len(labels))
	for value, label := range labels {
		opts = append(opts, categoryOption{Value: value, Label: label})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	return opts
}
