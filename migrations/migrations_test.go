package migrations

import (
	"io/fs"
	"slices"
	"testing"
)

func TestForDriver(t *testing.T) {
	var names [][]string
	for _, driver := range []string{"sqlite3", "postgres"} {
		fsys, err := ForDriver(driver)
		if err != nil {
			t.Fatalf("ForDriver(%q) error = %v", driver, err)
		}
		files, err := fs.Glob(fsys, "*.sql")
		if err != nil {
			t.Fatalf("Glob() error = %v", err)
		}
		if len(files) == 0 {
			t.Fatalf("ForDriver(%q) has no migrations", driver)
		}
		names = append(names, files)
	}

	// Both dialects must carry the same migration sequence.
	if !slices.Equal(names[0], names[1]) {
		t.Errorf("sqlite migrations %v differ from postgres %v", names[0], names[1])
	}

	if _, err := ForDriver("mysql"); err == nil {
		t.Errorf("ForDriver(mysql) error = nil")
	}
}
