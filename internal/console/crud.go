package console

import (
	"context"
	"fmt"

	"oli-admin/internal/model"
	"oli-admin/internal/render"
)

// SaveItem validates the product dialog, uploads its image if any, then creates
// or updates the item and re-renders from a fresh fetch.
func (c *Controller) SaveItem(ctx context.Context, trigger Control, form ItemForm) error {
	if err := validate.Struct(form); err != nil {
		c.view.Alert(MsgItemRequired)
		return &ValidationError{Message: MsgItemRequired}
	}

	setControl(trigger, true, SaveBusyLabel)
	defer setControl(trigger, false, SaveLabel)

	image, err := c.resolveImage(ctx, model.KindItem, form.Image, form.File)
	if err != nil {
		return c.fail("upload image", err)
	}

	item := model.Item{
		Name:     form.Name,
		Category: form.Category,
		Price:    *form.Price,
		Unit:     form.Unit,
		Image:    image,
	}
	if form.ID != "" {
		err = c.store.UpdateItem(ctx, form.ID, item)
	} else {
		_, err = c.store.CreateItem(ctx, item)
	}
	if err != nil {
		return c.fail("save item", err)
	}

	c.CloseModals()
	if err := c.RenderTables(ctx); err != nil {
		return fmt.Errorf("after saving item: %w", err)
	}
	return nil
}

// SaveArticle is SaveItem for the blog dialog.
func (c *Controller) SaveArticle(ctx context.Context, trigger Control, form ArticleForm) error {
	if err := validate.Struct(form); err != nil {
		c.view.Alert(MsgArticleRequired)
		return &ValidationError{Message: MsgArticleRequired}
	}

	setControl(trigger, true, SaveBusyLabel)
	defer setControl(trigger, false, SaveLabel)

	image, err := c.resolveImage(ctx, model.KindArticle, form.Image, form.File)
	if err != nil {
		return c.fail("upload image", err)
	}

	article := model.Article{
		Title: form.Title,
		Tag:   form.Tag,
		Desc:  form.Desc,
		Image: image,
	}
	if form.ID != "" {
		err = c.store.UpdateArticle(ctx, form.ID, article)
	} else {
		_, err = c.store.CreateArticle(ctx, article)
	}
	if err != nil {
		return c.fail("save article", err)
	}

	c.CloseModals()
	if err := c.RenderTables(ctx); err != nil {
		return fmt.Errorf("after saving article: %w", err)
	}
	return nil
}

// DeleteItem removes an item once the operator confirms. No confirmation, no call.
func (c *Controller) DeleteItem(ctx context.Context, id string, confirm Confirm) error {
	if confirm == nil || !confirm(render.ConfirmDeleteItem) {
		return nil
	}
	if err := c.store.DeleteItem(ctx, id); err != nil {
		return c.fail("delete item", err)
	}
	return c.RenderTables(ctx)
}

// DeleteArticle removes an article once the operator confirms.
func (c *Controller) DeleteArticle(ctx context.Context, id string, confirm Confirm) error {
	if confirm == nil || !confirm(render.ConfirmDeleteArticle) {
		return nil
	}
	if err := c.store.DeleteArticle(ctx, id); err != nil {
		return c.fail("delete article", err)
	}
	return c.RenderTables(ctx)
}

// resolveImage uploads file when present, else keeps current, else the placeholder.
func (c *Controller) resolveImage(ctx context.Context, kind model.Kind, current string, file *Upload) (string, error) {
	if file != nil {
		return c.blobs.Upload(ctx, c.uploadPath(kind, file.Filename), file.ContentType, file.Body)
	}
	if current != "" {
		return current, nil
	}
	return c.placeholder, nil
}
