package school

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/censo/core"
)

//go:embed data/schools.json
var bundled embed.FS

var (
	// errors
	ErrDuplicateINEP = errors.New("duplicate INEP code")
	ErrInvalidSchool = errors.New("school requires a name and an 8 digit INEP code")

	searchMinRatio = .6
)

// School is an entry of the municipal school registry.
type School struct {
	Name string `json:"name"`
	INEP string `json:"inep"`
}

// Registry is the read-only school reference table.
type Registry struct {
	schools []School
	byINEP  map[string]int
}

// LoadBundled loads the registry shipped with the binary.
func LoadBundled() (*Registry, error) {
	f, err := bundled.Open("data/schools.json")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening bundled schools")
	}
	defer f.Close()
	return Load(f)
}

// Open loads the registry from path, or the bundled one when path is empty.
func Open(path string) (*Registry, error) {
	if path == "" {
		return LoadBundled()
	}
	return LoadFile(path)
}

// LoadFile loads the registry from a JSON file holding a list of {name, inep}.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening schools file")
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a JSON list of schools. Blank or duplicated INEP codes are rejected.
func Load(r io.Reader) (*Registry, error) {
	var schools []School
	if err := json.NewDecoder(r).Decode(&schools); err != nil {
		return nil, pkgerrors.Wrap(err, "decoding schools")
	}
	return New(schools...)
}

func New(schools ...School) (*Registry, error) {
	reg := &Registry{
		schools: make([]School, 0, len(schools)),
		byINEP:  make(map[string]int, len(schools)),
	}
	for _, s := range schools {
		s.Name = core.CleanString(s.Name)
		s.INEP = core.CleanString(s.INEP)
		if s.Name == "" || !core.IsINEP(s.INEP) {
			return nil, pkgerrors.Wrapf(ErrInvalidSchool, "%q (%q)", s.Name, s.INEP)
		}
		if _, ok := reg.byINEP[s.INEP]; ok {
			return nil, pkgerrors.Wrap(ErrDuplicateINEP, s.INEP)
		}
		reg.byINEP[s.INEP] = len(reg.schools)
		reg.schools = append(reg.schools, s)
	}
	return reg, nil
}

// FindByINEP looks a school up by its INEP code.
func (reg *Registry) FindByINEP(inep string) (School, bool) {
	idx, ok := reg.byINEP[core.CleanString(inep)]
	if !ok {
		return School{}, false
	}
	return reg.schools[idx], true
}

// All returns a copy of the registry, in load order.
func (reg *Registry) All() []School {
	all := make([]School, len(reg.schools))
	copy(all, reg.schools)
	return all
}

func (reg *Registry) Count() int {
	return len(reg.schools)
}

// Search does a case-insensitive match on the school name or the INEP prefix,
// then falls back to fuzzy name similarity. Results are ranked best first.
func (reg *Registry) Search(query string) []School {
	q := core.CleanString(query, true /* lower */)
	if q == "" {
		return reg.All()
	}

	type hit struct {
		school School
		score  float64
	}
	hits := make([]hit, 0)
	for _, s := range reg.schools {
		name := strings.ToLower(s.Name)
		switch {
		case strings.HasPrefix(s.INEP, q), strings.Contains(name, q):
			hits = append(hits, hit{school: s, score: 1})
		default:
			if score := similarity(q, name); score >= searchMinRatio {
				hits = append(hits, hit{school: s, score: score})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].school.Name < hits[j].school.Name
	})
	found := make([]School, 0, len(hits))
	for _, h := range hits {
		found = append(found, h.school)
	}
	return found
}

// similarity returns the best difflib ratio between q and the whole name or any of its words.
func similarity(q, name string) float64 {
	ratio := func(a, b string) float64 {
		return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
	}
	best := ratio(q, name)
	for _, word := range strings.Fields(name) {
		if r := ratio(q, word); r > best {
			best = r
		}
	}
	return best
}
