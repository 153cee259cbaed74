package console

import (
	"errors"

	"oli-admin/internal/model"
)

func (c *Controller) OpenItemCreate() {
	c.view.FillItemForm(ItemForm{})
	c.view.ShowModal(model.KindItem)
}

// OpenItemEdit pre-fills the product dialog. Unknown ids are ignored.
func (c *Controller) OpenItemEdit(id string) {
	for _, it := range c.state.Items {
		if it.ID == id {
			c.view.FillItemForm(ItemFormFrom(it))
			c.view.ShowModal(model.KindItem)
			return
		}
	}
}

func (c *Controller) OpenArticleCreate() {
	c.view.FillArticleForm(ArticleForm{})
	c.view.ShowModal(model.KindArticle)
}

// OpenArticleEdit pre-fills the blog dialog. Unknown ids are ignored.
func (c *Controller) OpenArticleEdit(id string) {
	for _, a := range c.state.Articles {
		if a.ID == id {
			c.view.FillArticleForm(ArticleFormFrom(a))
			c.view.ShowModal(model.KindArticle)
			return
		}
	}
}

// OpenArticleImport opens a new blog dialog pre-filled from a web page.
func (c *Controller) OpenArticleImport(rawURL string) error {
	if c.importer == nil {
		return c.fail("import article", errors.New("import is not configured"))
	}

	draft, err := c.importer.Import(rawURL)
	if err != nil {
		return c.fail("import article", err)
	}

	c.view.FillArticleForm(ArticleForm{
		Title: draft.Title,
		Desc:  draft.Desc,
		Image: draft.Image,
	})
	c.view.ShowModal(model.KindArticle)
	return nil
}

// CloseModals hides every dialog, whichever is open.
func (c *Controller) CloseModals() {
	c.view.HideModals()
}
