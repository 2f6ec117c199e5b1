package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDB is a sqlite database with a config file pointing at it.
type testDB struct {
	dir        string
	configPath string
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	dir := t.TempDir()
	migrations, err := filepath.Abs(filepath.Join("..", "..", "migrations", "sqlite3"))
	require.NoError(t, err)

	config := fmt.Sprintf(`database:
  driver: sqlite3
  path: %s
  migrationspath: %s
log:
  level: error
`, filepath.Join(dir, "books.db"), migrations)

	path := filepath.Join(dir, "javango.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return &testDB{dir: dir, configPath: path}
}

// migratedDB returns a test database with the books table created.
func migratedDB(t *testing.T) *testDB {
	t.Helper()
	db := newTestDB(t)
	_, err := db.run(t, "", "migrate")
	require.NoError(t, err)
	return db
}

// run executes the root command with the database's config and returns
// what it wrote to stdout.
func (db *testDB) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", db.configPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (db *testDB) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(db.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
