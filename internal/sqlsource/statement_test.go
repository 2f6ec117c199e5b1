package sqlsource

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

var allDrivers = []string{DriverMySQL, DriverSQLite, DriverPostgres}

func assertStatementGolden(t *testing.T, name string, stmt Statement) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(fmt.Sprintf("%s\n%v\n", stmt.SQL, stmt.Args)))
}

func TestBuildSelectGolden(t *testing.T) {
	filter := query.NewFilter(
		query.Term{Field: "authors", Value: record.String("Orwell")},
		query.Term{Field: "edition", Value: record.Int(2)},
	)

	for _, driver := range allDrivers {
		t.Run(driver, func(t *testing.T) {
			d, err := DialectFor(driver)
			require.NoError(t, err)

			stmt, err := d.BuildSelect(query.New("books_books"))
			require.NoError(t, err)
			assertStatementGolden(t, "select_all_"+driver, stmt)

			q := query.New("books_books").WithFilter(filter).WithOrder("title DESC, id")
			stmt, err = d.BuildSelect(q)
			require.NoError(t, err)
			assertStatementGolden(t, "select_filter_order_"+driver, stmt)
		})
	}
}

func TestBuildInsertGolden(t *testing.T) {
	r := record.NewIn("books_books").
		Set("isbn", record.String("123")).
		Set("title", record.String("Animal Farm")).
		Set("rrp", record.Float(7.99)).
		Set("image", record.Null{})

	for _, driver := range allDrivers {
		t.Run(driver, func(t *testing.T) {
			d, err := DialectFor(driver)
			require.NoError(t, err)

			stmt, err := d.BuildInsert(r)
			require.NoError(t, err)
			assertStatementGolden(t, "insert_"+driver, stmt)
		})
	}
}

func TestEmptyFilterEmitsNoWhere(t *testing.T) {
	d, _ := DialectFor(DriverSQLite)

	bare, err := d.BuildSelect(query.New("books"))
	require.NoError(t, err)
	empty, err := d.BuildSelect(query.New("books").WithFilter(query.NewFilter()))
	require.NoError(t, err)

	assert.Equal(t, bare, empty)
	assert.NotContains(t, empty.SQL, "WHERE")
}

func TestFilterValuesAreBoundNotInterpolated(t *testing.T) {
	d, _ := DialectFor(DriverMySQL)
	hostile := `x" OR "1"="1`

	stmt, err := d.BuildSelect(query.New("books").WithFilter(
		query.FilterFromStrings(map[string]string{"title": hostile})))
	require.NoError(t, err)

	assert.NotContains(t, stmt.SQL, hostile)
	assert.Equal(t, []any{hostile}, stmt.Args)
}

func TestInsertKeepsColumnValueCorrespondence(t *testing.T) {
	d, _ := DialectFor(DriverSQLite)
	r := record.NewIn("t").Set("c", record.Int(3)).Set("a", record.Int(1)).Set("b", record.Int(2))

	stmt, err := d.BuildInsert(r)
	require.NoError(t, err)

	assert.Equal(t, `INSERT INTO "t" ("c", "a", "b") VALUES (?, ?, ?)`, stmt.SQL)
	assert.Equal(t, []any{int64(3), int64(1), int64(2)}, stmt.Args)
}

func TestBuildInsertRejectsBeforeBuilding(t *testing.T) {
	d, _ := DialectFor(DriverSQLite)

	_, err := d.BuildInsert(record.NewIn("books"))
	assert.ErrorIs(t, err, datasource.ErrEmptyRecord)

	_, err = d.BuildInsert(record.New().Set("a", record.Int(1)))
	assert.ErrorIs(t, err, datasource.ErrNoCollection)
}

func TestInvalidIdentifiers(t *testing.T) {
	d, _ := DialectFor(DriverSQLite)

	_, err := d.BuildSelect(query.New("books; DROP TABLE x"))
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = d.BuildSelect(query.New("books").WithFilter(
		query.FilterFromStrings(map[string]string{"a b": "x"})))
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = d.BuildInsert(record.NewIn("books").Set(`title"`, record.String("x")))
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestInvalidOrder(t *testing.T) {
	d, _ := DialectFor(DriverSQLite)

	_, err := d.BuildSelect(query.New("books").WithOrder("title; DELETE FROM books"))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestArgConversion(t *testing.T) {
	my, _ := DialectFor(DriverMySQL)
	pg, _ := DialectFor(DriverPostgres)

	assert.Nil(t, my.arg(record.Null{}))
	assert.Equal(t, true, my.arg(record.Bool(true)))
	assert.Equal(t, "1949-06-08", my.arg(record.Date{Year: 1949, Month: 6, Day: 8}))
	assert.Equal(t, []byte("hi"), my.arg(record.Bytes("hi")))

	arr := record.Array{record.String("a"), record.Int(1), record.Null{}}
	assert.Equal(t, `["a",1,null]`, my.arg(arr))
	assert.Equal(t, `{"a","1",NULL}`, pg.arg(arr))
}
