package census

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/school"
	inmemdb "github.com/trezcool/censo/storage/database/inmem"
)

var (
	escolaA = school.School{Name: "Escola Municipal Paulo Freire", INEP: "23101495"}
	escolaB = school.School{Name: "Escola Estadual Maria Santos", INEP: "34567890"}
	escolaC = school.School{Name: "Escola Municipal Monteiro Lobato", INEP: "23101479"}
)

func newTestRegistry(t *testing.T) *school.Registry {
	reg, err := school.New(escolaA, escolaB, escolaC)
	require.NoError(t, err)
	return reg
}

func newTestStore() (*Store, *inmemdb.DB) {
	db := inmemdb.Open()
	return NewStore(db, core.NewNopLogger(), 0), db
}

func mockNow(t *testing.T, now time.Time) {
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
}

func newSubmission(id string, s school.School, classrooms int, internet bool, modalities ...string) Submission {
	sch := s
	if modalities == nil {
		modalities = []string{}
	}
	return Submission{
		ID: id,
		Form: Form{
			SelectedSchool:     &sch,
			ClassroomsCount:    classrooms,
			Classrooms:         sampleClassrooms(classrooms),
			TeachingModalities: modalities,
			Technology:         Technology{Chromebooks: classrooms * 2, Notebooks: 1, HasSchoolInternet: internet},
		},
		SubmittedAt: time.Date(2024, time.March, 10, 12, 30, 0, 0, time.UTC),
		SubmittedBy: "Ana",
	}
}
