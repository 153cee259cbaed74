package render

import "github.com/dustin/go-humanize"

// Labels maps category tags to display labels. Unknown tags display as-is.
type Labels map[string]string

func (l Labels) Label(category string) string {
	if label, ok := l[category]; ok {
		return label
	}
	return category
}

// PriceFormatter turns a stored price into display text.
type PriceFormatter func(price int) string

// GroupedPrice formats with space-grouped thousands followed by the currency, e.g. "1 500 FCFA".
func GroupedPrice(currency string) PriceFormatter {
	return func(price int) string {
		s := humanize.FormatInteger("# ###,", price)
		if currency == "" {
			return s
		}
		return s + " " + currency
	}
}
