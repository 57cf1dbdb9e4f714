// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/school"
	"github.com/trezcool/censo/storage/database"
)

var (
	EscolaA = school.School{Name: "Escola Municipal Paulo Freire", INEP: "23101495"}
	EscolaB = school.School{Name: "Escola Estadual Maria Santos", INEP: "34567890"}
	EscolaC = school.School{Name: "Escola Municipal Monteiro Lobato", INEP: "23101479"}
)

// NewRegistry returns a registry of schools, EscolaA, EscolaB and EscolaC by default.
func NewRegistry(t *testing.T, schools ...school.School) *school.Registry {
	if len(schools) == 0 {
		schools = []school.School{EscolaA, EscolaB, EscolaC}
	}
	reg, err := school.New(schools...)
	if err != nil {
		t.Fatalf("school.New() failed: %v", err)
	}
	return reg
}

// OpenSQLite opens a private in-memory sqlite database, closed when the test ends.
func OpenSQLite(t *testing.T, migrate bool) *sqlx.DB {
	conf := core.StorageConfig{
		Driver: core.DriverSQLite,
		DSN:    "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared&_busy_timeout=5000",
	}
	db, err := database.Open(context.Background(), conf)
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if migrate {
		if err := database.Migrate(db.DB, conf.Driver); err != nil {
			t.Fatalf("database.Migrate() failed: %v", err)
		}
	}
	return db
}
