package console

import (
	"io"
	"strconv"
	"strings"

	"oli-admin/internal/model"

	"github.com/go-playground/validator/v10"
)

// Form field names, shared with the HTML templates.
const (
	FieldItemID       = "p-id"
	FieldItemName     = "p-name"
	FieldItemCategory = "p-category"
	FieldItemPrice    = "p-price"
	FieldItemUnit     = "p-unit"
	FieldItemImage    = "p-image"
	FieldItemFile     = "p-file"

	FieldArticleID    = "b-id"
	FieldArticleTitle = "b-title"
	FieldArticleTag   = "b-tag"
	FieldArticleDesc  = "b-desc"
	FieldArticleImage = "b-image"
	FieldArticleFile  = "b-file"
)

var validate = validator.New()

// Upload is a file attached to a form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Fields is a source of raw form values.
type Fields interface {
	Value(name string) string
	// File returns nil, nil when nothing was attached.
	File(name string) (*Upload, error)
}

// ItemForm holds the product dialog. Price is nil when the input was not a number.
type ItemForm struct {
	ID       string
	Name     string `validate:"required"`
	Category string
	Price    *int `validate:"required,min=0"`
	Unit     string
	Image    string
	File     *Upload
}

// ArticleForm holds the blog dialog.
type ArticleForm struct {
	ID    string
	Title string `validate:"required"`
	Tag   string
	Desc  string
	Image string
	File  *Upload
}

// ReadItemForm copies the product dialog fields. Only the price is converted.
func ReadItemForm(f Fields) (ItemForm, error) {
	file, err := f.File(FieldItemFile)
	if err != nil {
		return ItemForm{}, err
	}
	return ItemForm{
		ID:       f.Value(FieldItemID),
		Name:     f.Value(FieldItemName),
		Category: f.Value(FieldItemCategory),
		Price:    parsePrice(f.Value(FieldItemPrice)),
		Unit:     f.Value(FieldItemUnit),
		Image:    f.Value(FieldItemImage),
		File:     file,
	}, nil
}

// ReadArticleForm copies the blog dialog fields.
func ReadArticleForm(f Fields) (ArticleForm, error) {
	file, err := f.File(FieldArticleFile)
	if err != nil {
		return ArticleForm{}, err
	}
	return ArticleForm{
		ID:    f.Value(FieldArticleID),
		Title: f.Value(FieldArticleTitle),
		Tag:   f.Value(FieldArticleTag),
		Desc:  f.Value(FieldArticleDesc),
		Image: f.Value(FieldArticleImage),
		File:  file,
	}, nil
}

func parsePrice(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}

// ItemFormFrom pre-fills the product dialog from a stored item.
func ItemFormFrom(it model.Item) ItemForm {
	price := it.Price
	return ItemForm{
		ID:       it.ID,
		Name:     it.Name,
		Category: it.Category,
		Price:    &price,
		Unit:     it.Unit,
		Image:    it.Image,
	}
}

// ArticleFormFrom pre-fills the blog dialog from a stored article.
func ArticleFormFrom(a model.Article) ArticleForm {
	return ArticleForm{
		ID:    a.ID,
		Title: a.Title,
		Tag:   a.Tag,
		Desc:  a.Desc,
		Image: a.Image,
	}
}

// PriceText is the price as it appears in the input box.
func (f ItemForm) PriceText() string {
	if f.Price == nil {
		return ""
	}
	return strconv.Itoa(*f.Price)
}
