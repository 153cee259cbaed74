package model

// Kind names a collection. It doubles as the blob path prefix and the URL segment.
type Kind string

const (
	KindItem    Kind = "products"
	KindArticle Kind = "blog"
)

func (k Kind) String() string { return string(k) }
