package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oli-admin/internal/model"
	"oli-admin/internal/render"
	"oli-admin/internal/store"

	"go.uber.org/zap"
)

// Deps are the collaborators of a Controller. Importer may be nil.
type Deps struct {
	Identity         Identity
	Store            store.Store
	Blobs            Blobs
	Importer         Importer
	Renderer         render.Renderer
	View             View
	Logger           *zap.Logger
	PlaceholderImage string
}

// Controller owns one console's state. It is not safe for concurrent use:
// callers run one operation at a time, as a UI event loop would.
type Controller struct {
	identity    Identity
	store       store.Store
	blobs       Blobs
	importer    Importer
	renderer    render.Renderer
	view        View
	logger      *zap.Logger
	placeholder string
	now         func() time.Time

	state       State
	unsubscribe func()
}

func NewController(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		identity:    d.Identity,
		store:       d.Store,
		blobs:       d.Blobs,
		importer:    d.Importer,
		renderer:    d.Renderer,
		view:        d.View,
		logger:      logger,
		placeholder: d.PlaceholderImage,
		now:         time.Now,
	}
}

// State returns the snapshot from the last successful refresh.
func (c *Controller) State() State {
	return c.state
}

// Start subscribes to auth state changes. The subscription lasts until Stop.
func (c *Controller) Start(ctx context.Context) {
	c.unsubscribe = c.identity.OnAuthStateChanged(ctx, c.handleAuthState)
}

func (c *Controller) Stop() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Controller) handleAuthState(ctx context.Context, op *model.Operator) {
	if op == nil {
		c.view.ShowScreen(ScreenAuth)
		return
	}

	c.logger.Info("Operator signed in", zap.String("email", op.Email))
	c.view.ShowScreen(ScreenDashboard)
	if err := c.RenderTables(ctx); err != nil {
		c.logger.Error("Failed to render tables", zap.Error(err))
	}
}

// Login signs in. Empty credentials are ignored without calling the provider.
func (c *Controller) Login(ctx context.Context, trigger Control, email, password string) error {
	if email == "" || password == "" {
		return &ValidationError{Message: "email and password are required"}
	}

	setControl(trigger, true, LoginBusyLabel)
	if err := c.identity.SignIn(ctx, email, password); err != nil {
		c.logger.Warn("Sign-in rejected", zap.String("email", email), zap.Error(err))
		c.view.SetLoginError(true)
		setControl(trigger, false, LoginLabel)
		return &AuthError{Err: err}
	}

	c.view.SetLoginError(false)
	// The auth screen comes back with this control on the next sign-out.
	setControl(trigger, false, LoginLabel)
	return nil
}

// Logout signs out and reloads the whole view.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.identity.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.view.Reload()
	return nil
}

// SwitchTab shows one dashboard section and highlights the nav entry that asked for it.
func (c *Controller) SwitchTab(tab Tab, nav NavItem) {
	c.view.ClearActiveNav()
	if nav != nil {
		nav.SetActive(true)
	}
	c.view.ShowTab(tab)
}

// Refresh replaces the state with a fresh fetch of both collections.
// On failure the previous state is kept.
func (c *Controller) Refresh(ctx context.Context) (State, error) {
	snap, err := c.store.FetchAll(ctx)
	if err != nil {
		return c.state, fmt.Errorf("refresh: %w", err)
	}
	c.state = State{Items: snap.Items, Articles: snap.Articles}
	return c.state, nil
}

// RenderTables shows the loading rows, refreshes, then renders both tables.
// If the refresh fails the loading rows stay on screen and the error is returned.
func (c *Controller) RenderTables(ctx context.Context) error {
	for _, kind := range []model.Kind{model.KindItem, model.KindArticle} {
		body, err := c.renderer.Loading(kind)
		if err != nil {
			return err
		}
		c.view.SetTable(kind, body)
	}

	state, err := c.Refresh(ctx)
	if err != nil {
		return err
	}

	items, err := c.renderer.Items(state.Items)
	if err != nil {
		return err
	}
	c.view.SetTable(model.KindItem, items)

	articles, err := c.renderer.Articles(state.Articles)
	if err != nil {
		return err
	}
	c.view.SetTable(model.KindArticle, articles)
	return nil
}

// fail reports an operation error to the operator.
func (c *Controller) fail(op string, err error) error {
	c.logger.Error("Operation failed", zap.String("op", op), zap.Error(err))
	c.view.Alert(MsgErrorPrefix + err.Error())
	return &OperationError{Op: op, Err: err}
}

func setControl(ctl Control, disabled bool, label string) {
	if ctl == nil {
		return
	}
	ctl.SetDisabled(disabled)
	ctl.SetLabel(label)
}

// uploadPath is "<kind>/<unix millis>_<base name>".
func (c *Controller) uploadPath(kind model.Kind, filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	if filename == "" {
		filename = "upload"
	}
	return fmt.Sprintf("%s/%d_%s", kind, c.now().UnixMilli(), filename)
}
