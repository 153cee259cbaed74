package render

import (
	"bytes"
	"fmt"
	"html/template"

	"oli-admin/internal/model"
)

const (
	loadingText       = "Chargement..."
	emptyItemsText    = "Aucun produit."
	emptyArticlesText = "Aucun article."

	itemColumns    = 5
	articleColumns = 4
)

// Renderer produces table bodies from snapshot records.
// Output depends only on the records passed in.
type Renderer interface {
	Loading(kind model.Kind) (template.HTML, error)
	Items(items []model.Item) (template.HTML, error)
	Articles(articles []model.Article) (template.HTML, error)
}

var rowTemplates = template.Must(template.New("rows").Parse(`
{{- define "placeholder" -}}
<tr class="placeholder"><td colspan="{{.Cols}}" style="text-align:center;{{if .Padded}} padding:2rem;{{end}}">{{.Text}}</td></tr>
{{- end -}}

{{- define "actions" -}}
<td>
<form method="post" action="/{{.Kind}}/{{.ID}}/edit" class="inline"><button class="action-btn edit-btn" type="submit" title="Modifier"><i class="ri-edit-line"></i></button></form>
<form method="post" action="/{{.Kind}}/{{.ID}}/delete" class="inline" data-confirm="{{.Confirm}}"><input type="hidden" name="confirm" value=""><button class="action-btn delete-btn" type="submit" title="Supprimer"><i class="ri-delete-bin-line"></i></button></form>
</td>
{{- end -}}

{{- define "thumb" -}}
<td><img src="{{.Image}}" data-fallback="{{.Fallback}}" class="thumb" alt="" onerror="this.onerror=null;this.src=this.dataset.fallback"></td>
{{- end -}}

{{- define "items" -}}
{{range .}}<tr data-id="{{.ID}}">{{template "thumb" .}}<td>{{.Name}}</td><td>{{.Category}}</td><td>{{.Price}}</td>{{template "actions" .}}</tr>
{{end}}
{{- end -}}

{{- define "articles" -}}
{{range .}}<tr data-id="{{.ID}}">{{template "thumb" .}}<td>{{.Title}}</td><td>{{.Tag}}</td>{{template "actions" .}}</tr>
{{end}}
{{- end -}}
`))

type placeholder struct {
	Cols   int
	Text   string
	Padded bool
}

type row struct {
	Kind     model.Kind
	ID       string
	Image    string
	Fallback string
	Confirm  string
	Name     string
	Category string
	Price    string
	Title    string
	Tag      string
}

// HTMLRenderer renders rows for the dashboard tables.
type HTMLRenderer struct {
	labels      Labels
	price       PriceFormatter
	placeholder string
}

func NewHTMLRenderer(labels Labels, price PriceFormatter, placeholderImage string) *HTMLRenderer {
	if labels == nil {
		labels = Labels{}
	}
	if price == nil {
		price = GroupedPrice("")
	}
	return &HTMLRenderer{labels: labels, price: price, placeholder: placeholderImage}
}

func (r *HTMLRenderer) Loading(kind model.Kind) (template.HTML, error) {
	return execute("placeholder", placeholder{Cols: columns(kind), Text: loadingText})
}

func (r *HTMLRenderer) Items(items []model.Item) (template.HTML, error) {
	if len(items) == 0 {
		return execute("placeholder", placeholder{Cols: itemColumns, Text: emptyItemsText, Padded: true})
	}

	rows := make([]row, len(items))
	for i, it := range items {
		rows[i] = row{
			Kind:     model.KindItem,
			ID:       it.ID,
			Image:    r.image(it.Image),
			Fallback: r.placeholder,
			Confirm:  ConfirmDeleteItem,
			Name:     it.Name,
			Category: r.labels.Label(it.Category),
			Price:    r.price(it.Price),
		}
	}
	return execute("items", rows)
}

func (r *HTMLRenderer) Articles(articles []model.Article) (template.HTML, error) {
	if len(articles) == 0 {
		return execute("placeholder", placeholder{Cols: articleColumns, Text: emptyArticlesText, Padded: true})
	}

	rows := make([]row, len(articles))
	for i, a := range articles {
		rows[i] = row{
			Kind:     model.KindArticle,
			ID:       a.ID,
			Image:    r.image(a.Image),
			Fallback: r.placeholder,
			Confirm:  ConfirmDeleteArticle,
			Title:    a.Title,
			Tag:      a.Tag,
		}
	}
	return execute("articles", rows)
}

func (r *HTMLRenderer) image(src string) string {
	if src == "" {
		return r.placeholder
	}
	return src
}

// Delete prompts, shared with the console so both sides agree on the wording.
const (
	ConfirmDeleteItem    = "Supprimer ce produit ?"
	ConfirmDeleteArticle = "Supprimer cet article ?"
)

func columns(kind model.Kind) int {
	if kind == model.KindArticle {
		return articleColumns
	}
	return itemColumns
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := rowTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
