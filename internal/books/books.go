// Package books declares the Books resource.
package books

import (
	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/model"
)

// Collection is the table holding books.
const Collection = "books_books"

// Definition lists the columns of the books table.
var Definition = model.Definition{
	Name: Collection,
	Fields: []string{
		"id",
		"isbn",
		"title",
		"authors",
		"image",
		"rrp",
		"description",
		"edition",
		"format",
	},
}

// New returns the Books model over ds.
func New(ds datasource.DataSource, opts ...model.Option) (*model.Model, error) {
	return model.New(Definition, ds, opts...)
}
