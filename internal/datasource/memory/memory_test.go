package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

func book(isbn, title, authors string, rrp float64) *record.Record {
	return record.NewIn("books_books").
		Set("isbn", record.String(isbn)).
		Set("title", record.String(title)).
		Set("authors", record.String(authors)).
		Set("rrp", record.Float(rrp))
}

func seeded(t *testing.T, opts ...Option) *DataSource {
	t.Helper()
	ds := New(opts...)
	ctx := context.Background()
	require.NoError(t, ds.Create(ctx, book("1", "1984", "Orwell", 9.99)))
	require.NoError(t, ds.Create(ctx, book("2", "Brave New World", "Huxley", 12.5)))
	require.NoError(t, ds.Create(ctx, book("3", "Animal Farm", "Orwell", 7)))
	return ds
}

func titles(s *record.RecordSet) []string {
	var out []string
	for _, r := range s.Records() {
		v, _ := r.Get("title")
		out = append(out, record.Text(v))
	}
	return out
}

func TestRetrieveAllInInsertionOrder(t *testing.T) {
	ds := seeded(t)

	set, err := ds.Retrieve(context.Background(), query.New("books_books"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1984", "Brave New World", "Animal Farm"}, titles(set))
}

func TestRetrieveWithFilter(t *testing.T) {
	ds := seeded(t)

	q := query.New("books_books").WithFilter(query.FilterFromStrings(map[string]string{"authors": "Orwell"}))
	set, err := ds.Retrieve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"1984", "Animal Farm"}, titles(set))
}

func TestRetrieveFilterComparesByText(t *testing.T) {
	ds := seeded(t)

	q := query.New("books_books").WithFilter(query.NewFilter(query.Term{Field: "rrp", Value: record.String("12.5")}))
	set, err := ds.Retrieve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brave New World"}, titles(set))
}

func TestRetrieveNoMatchIsEmptySet(t *testing.T) {
	ds := seeded(t)

	q := query.New("books_books").WithFilter(query.FilterFromStrings(map[string]string{"authors": "Nobody"}))
	set, err := ds.Retrieve(context.Background(), q)
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Zero(t, set.Len())
	assert.Equal(t, "[]", set.Encode())

	set, err = ds.Retrieve(context.Background(), query.New("unknown"))
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestRetrieveOrder(t *testing.T) {
	ds := seeded(t)

	set, err := ds.Retrieve(context.Background(), query.New("books_books").WithOrder("rrp DESC"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Brave New World", "1984", "Animal Farm"}, titles(set))

	set, err = ds.Retrieve(context.Background(), query.New("books_books").WithOrder("authors, title"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Brave New World", "1984", "Animal Farm"}, titles(set))
}

func TestRetrieveInvalidOrderIsRetrievalError(t *testing.T) {
	ds := seeded(t)

	_, err := ds.Retrieve(context.Background(), query.New("books_books").WithOrder("rrp; --"))
	assert.True(t, datasource.IsRetrievalError(err))
	assert.ErrorIs(t, err, query.ErrInvalidOrder)
}

func TestRetrieveCancelledContext(t *testing.T) {
	ds := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := ds.Retrieve(ctx, query.New("books_books"))
	assert.Nil(t, set)
	assert.True(t, datasource.IsRetrievalError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateStoresCopy(t *testing.T) {
	ds := New()
	r := book("1", "1984", "Orwell", 9.99)
	require.NoError(t, ds.Create(context.Background(), r))

	r.Set("title", record.String("changed"))

	set, err := ds.Retrieve(context.Background(), query.New("books_books"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1984"}, titles(set))
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	ds := New()

	err := ds.Create(context.Background(), record.NewIn("books_books"))
	assert.ErrorIs(t, err, datasource.ErrEmptyRecord)

	err = ds.Create(context.Background(), record.New().Set("a", record.Int(1)))
	assert.ErrorIs(t, err, datasource.ErrNoCollection)
	assert.Zero(t, ds.Len("books_books"))
}

func TestCreateDuplicateKey(t *testing.T) {
	ds := seeded(t, WithUnique("books_books", "isbn"))

	err := ds.Create(context.Background(), book("2", "Other", "Other", 1))

	var ce *datasource.CreateError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "duplicate key", ce.Diagnostic())
	assert.Equal(t, 3, ds.Len("books_books"))
}

func TestUpdateDeleteUnsupported(t *testing.T) {
	ds := New()
	assert.ErrorIs(t, ds.Update(context.Background()), datasource.ErrUnsupported)
	assert.ErrorIs(t, ds.Delete(context.Background()), datasource.ErrUnsupported)
}

func TestConcurrentCreate(t *testing.T) {
	ds := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := record.NewIn("c").Set("n", record.Int(i))
			assert.NoError(t, ds.Create(context.Background(), r))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, ds.Len("c"))
}
