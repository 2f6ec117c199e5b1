package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, text string) []map[string]any {
	t.Helper()
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	return records
}

func TestGetEmptyCollection(t *testing.T) {
	db := migratedDB(t)

	out, err := db.run(t, "", "get", "books_books")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestGetWithFilter(t *testing.T) {
	db := migratedDB(t)
	_, err := db.run(t, "", "create", "books_books", `{"isbn":"9780441013593","title":"Dune","authors":"Frank Herbert","rrp":9.99}`)
	require.NoError(t, err)
	_, err = db.run(t, "", "create", "books_books", `{"isbn":"9780261103573","title":"The Fellowship of the Ring","authors":"J. R. R. Tolkien"}`)
	require.NoError(t, err)

	out, err := db.run(t, "", "get", "books_books", "isbn=9780441013593")
	require.NoError(t, err)

	records := decodeRecords(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "Dune", records[0]["title"])
	assert.Equal(t, "Frank Herbert", records[0]["authors"])
	assert.InDelta(t, 9.99, records[0]["rrp"], 1e-9)
	assert.Nil(t, records[0]["edition"])

	out, err = db.run(t, "", "get", "books_books")
	require.NoError(t, err)
	assert.Len(t, decodeRecords(t, out), 2)

	out, err = db.run(t, "", "get", "books_books", "isbn=0000000000000")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestGetLastDuplicateTermWins(t *testing.T) {
	db := migratedDB(t)
	_, err := db.run(t, "", "create", "books_books", `{"isbn":"1","title":"One"}`)
	require.NoError(t, err)

	out, err := db.run(t, "", "get", "books_books", "isbn=2", "isbn=1")
	require.NoError(t, err)
	assert.Len(t, decodeRecords(t, out), 1)
}

func TestGetJSONFormat(t *testing.T) {
	db := migratedDB(t)
	_, err := db.run(t, "", "create", "books_books", `{"isbn":"1","title":"One"}`)
	require.NoError(t, err)

	out, err := db.run(t, "", "--format", "json", "get", "books_books", "title=One")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "1", resp.Data[0]["isbn"])
}

func TestGetInvalidField(t *testing.T) {
	db := migratedDB(t)

	out, err := db.run(t, "", "get", "books_books", "publisher=x", "bogus=1", "title=Dune")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidField)
	assert.Contains(t, out, "The 'books_books' model does not have bogus, publisher field(s).")
}

func TestGetBadArgument(t *testing.T) {
	db := newTestDB(t)

	out, err := db.run(t, "", "get", "books_books", "isbn")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeBadArgument)
}

func TestGetUnknownModel(t *testing.T) {
	db := newTestDB(t)

	out, err := db.run(t, "", "get", "authors")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeUnknownModel)
	assert.Contains(t, out, `unknown model "authors"`)
}

func TestGetBackendFailure(t *testing.T) {
	db := newTestDB(t) // not migrated: the table does not exist

	out, err := db.run(t, "", "get", "books_books")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeRetrieveFailed)
	assert.Contains(t, out, "no such table")
}
