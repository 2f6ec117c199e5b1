package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitm/javango/internal/record"
)

func TestNewQueryHasNoFilterOrOrder(t *testing.T) {
	q := New("books_books")

	assert.Equal(t, "books_books", q.Collection())
	assert.False(t, q.HasFilter())
	assert.Nil(t, q.Filter())
	assert.Empty(t, q.Order())
	assert.NoError(t, q.Validate())
}

func TestEmptyFilterNormalizedToAbsent(t *testing.T) {
	testCases := []struct {
		name   string
		filter *Filter
	}{
		{"nil filter", nil},
		{"empty filter", NewFilter()},
		{"empty map", FilterFromStrings(map[string]string{})},
	}

	bare := New("books")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := New("books")
			q.SetFilter(tc.filter)

			assert.False(t, q.HasFilter())
			assert.Nil(t, q.Filter())
			assert.Equal(t, bare, q)
		})
	}
}

func TestSetFilterEmptyClearsPreviousFilter(t *testing.T) {
	q := New("books").WithFilter(NewFilter(Term{Field: "a", Value: record.Int(1)}))
	require.True(t, q.HasFilter())

	q.SetFilter(NewFilter())
	assert.False(t, q.HasFilter())
}

func TestSetFilterCopies(t *testing.T) {
	f := NewFilter(Term{Field: "authors", Value: record.String("Orwell")})
	q := New("books").WithFilter(f)

	f.Add("title", record.String("1984"))

	assert.Equal(t, []string{"authors"}, q.Filter().Fields())
}

func TestWithFilterDoesNotMutateOriginal(t *testing.T) {
	base := New("books")
	filtered := base.WithFilter(NewFilter(Term{Field: "a", Value: record.Int(1)}))

	assert.False(t, base.HasFilter())
	assert.True(t, filtered.HasFilter())
}

func TestFilterPreservesInsertionOrder(t *testing.T) {
	f := NewFilter()
	f.Add("title", record.String("x")).Add("authors", record.String("y")).Add("isbn", record.String("z"))

	assert.Equal(t, []string{"title", "authors", "isbn"}, f.Fields())
	assert.Equal(t, 3, f.Len())
}

func TestFilterAddReplacesExistingField(t *testing.T) {
	f := NewFilter()
	f.Add("a", record.Int(1)).Add("b", record.Int(2)).Add("a", record.Int(3))

	assert.Equal(t, []string{"a", "b"}, f.Fields())
	v, ok := f.Get("a")
	require.True(t, ok)
	assert.Equal(t, record.Int(3), v)
}

func TestFilterFromStringsSortsKeys(t *testing.T) {
	f := FilterFromStrings(map[string]string{"title": "x", "authors": "Orwell", "isbn": "1"})

	assert.Equal(t, []string{"authors", "isbn", "title"}, f.Fields())
	v, _ := f.Get("authors")
	assert.Equal(t, record.String("Orwell"), v)
}

func TestNilFilterAccessors(t *testing.T) {
	var f *Filter

	assert.True(t, f.IsEmpty())
	assert.Zero(t, f.Len())
	assert.Nil(t, f.Fields())
	assert.Nil(t, f.Terms())
	assert.Nil(t, f.Clone())
	_, ok := f.Get("x")
	assert.False(t, ok)
}

func TestValidateRequiresCollection(t *testing.T) {
	var q Query
	assert.ErrorIs(t, q.Validate(), ErrNoCollection)
}

func TestSetOrderTrims(t *testing.T) {
	q := New("books").WithOrder("  title DESC ")
	assert.Equal(t, "title DESC", q.Order())
}

func TestParseOrder(t *testing.T) {
	terms, err := ParseOrder("title, rrp desc ,id ASC")
	require.NoError(t, err)

	assert.Equal(t, []OrderTerm{
		{Field: "title"},
		{Field: "rrp", Descending: true},
		{Field: "id"},
	}, terms)

	terms, err = ParseOrder("")
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestParseOrderRejectsFragments(t *testing.T) {
	for _, order := range []string{
		"title; DROP TABLE books",
		"title,",
		"1title",
		"title DESC LIMIT 1",
		"lower(title)",
	} {
		_, err := ParseOrder(order)
		assert.ErrorIs(t, err, ErrInvalidOrder, order)
	}
}
