package census

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/school"
)

// Teaching modalities
const (
	ModalityAnosIniciais = "Anos iniciais"
	ModalityAnosFinais   = "Anos Finais"
	ModalityEJA          = "EJA"
	ModalityIntegral     = "Integral"
	ModalityBilingue     = "Bilingue"
)

var Modalities = []string{
	ModalityAnosIniciais,
	ModalityAnosFinais,
	ModalityEJA,
	ModalityIntegral,
	ModalityBilingue,
}

func IsModality(name string) bool {
	for _, m := range Modalities {
		if m == name {
			return true
		}
	}
	return false
}

type Classroom struct {
	ID                 string `json:"id"`
	Outlets            int    `json:"outlets" validate:"min=0"`
	TVs                int    `json:"tvs" validate:"min=0"`
	HasInternet        bool   `json:"hasInternet"`
	Chairs             int    `json:"chairs" validate:"min=0"`
	StudentCapacity    int    `json:"studentCapacity" validate:"min=0"`
	HasAirConditioning bool   `json:"hasAirConditioning"`
	Fans               int    `json:"fans" validate:"min=0"`
}

func newClassroom(n int) Classroom {
	return Classroom{ID: fmt.Sprintf("classroom-%d", n)}
}

func (c *Classroom) set(field string, value interface{}) error {
	switch field {
	case "outlets":
		return setCount(&c.Outlets, field, value)
	case "tvs":
		return setCount(&c.TVs, field, value)
	case "hasInternet":
		return setFlag(&c.HasInternet, field, value)
	case "chairs":
		return setCount(&c.Chairs, field, value)
	case "studentCapacity":
		return setCount(&c.StudentCapacity, field, value)
	case "hasAirConditioning":
		return setFlag(&c.HasAirConditioning, field, value)
	case "fans":
		return setCount(&c.Fans, field, value)
	}
	return fieldErr(field, errUnknownField)
}

func (c Classroom) fields() []fieldValue {
	return []fieldValue{
		{"outlets", c.Outlets},
		{"tvs", c.TVs},
		{"hasInternet", c.HasInternet},
		{"chairs", c.Chairs},
		{"studentCapacity", c.StudentCapacity},
		{"hasAirConditioning", c.HasAirConditioning},
		{"fans", c.Fans},
	}
}

type Technology struct {
	RoboticsKits      int  `json:"roboticsKits" validate:"min=0"`
	Chromebooks       int  `json:"chromebooks" validate:"min=0"`
	Notebooks         int  `json:"notebooks" validate:"min=0"`
	Modems            int  `json:"modems" validate:"min=0"`
	Printers          int  `json:"printers" validate:"min=0"`
	DefectiveModems   int  `json:"defectiveModems" validate:"min=0"`
	HasSchoolInternet bool `json:"hasSchoolInternet"`
}

func (t *Technology) set(field string, value interface{}) error {
	switch field {
	case "roboticsKits":
		return setCount(&t.RoboticsKits, field, value)
	case "chromebooks":
		return setCount(&t.Chromebooks, field, value)
	case "notebooks":
		return setCount(&t.Notebooks, field, value)
	case "modems":
		return setCount(&t.Modems, field, value)
	case "printers":
		return setCount(&t.Printers, field, value)
	case "defectiveModems":
		return setCount(&t.DefectiveModems, field, value)
	case "hasSchoolInternet":
		return setFlag(&t.HasSchoolInternet, field, value)
	}
	return fieldErr(field, errUnknownField)
}

func (t Technology) fields() []fieldValue {
	return []fieldValue{
		{"roboticsKits", t.RoboticsKits},
		{"chromebooks", t.Chromebooks},
		{"notebooks", t.Notebooks},
		{"modems", t.Modems},
		{"printers", t.Printers},
		{"defectiveModems", t.DefectiveModems},
		{"hasSchoolInternet", t.HasSchoolInternet},
	}
}

type fieldValue struct {
	name  string
	value interface{}
}

// Form is the editable part of a Submission.
type Form struct {
	SelectedSchool     *school.School `json:"selectedSchool"`
	ClassroomsCount    int            `json:"classroomsCount"`
	Classrooms         []Classroom    `json:"classrooms"`
	TeachingModalities []string       `json:"teachingModalities"`
	Technology         Technology     `json:"technology"`
}

func (f Form) clone() Form {
	cp := f
	if f.SelectedSchool != nil {
		s := *f.SelectedSchool
		cp.SelectedSchool = &s
	}
	cp.Classrooms = append(make([]Classroom, 0, len(f.Classrooms)), f.Classrooms...)
	cp.TeachingModalities = append(make([]string, 0, len(f.TeachingModalities)), f.TeachingModalities...)
	return cp
}

// Submission is one completed census record for a school.
type Submission struct {
	ID string `json:"id"`
	Form
	SubmittedAt time.Time `json:"submittedAt"`
	SubmittedBy string    `json:"submittedBy"`
}

func (s Submission) SchoolName() string {
	if s.SelectedSchool == nil {
		return ""
	}
	return s.SelectedSchool.Name
}

func (s Submission) SchoolINEP() string {
	if s.SelectedSchool == nil {
		return ""
	}
	return s.SelectedSchool.INEP
}

func (s Submission) HasModality(modality string) bool {
	for _, m := range s.TeachingModalities {
		if m == modality {
			return true
		}
	}
	return false
}

// NewSubmission is a complete form posted in one request.
type NewSubmission struct {
	SchoolINEP         string      `json:"schoolInep" validate:"required,inep"`
	ClassroomsCount    int         `json:"classroomsCount" validate:"min=0,max=200"`
	Classrooms         []Classroom `json:"classrooms" validate:"max=200,dive"`
	TeachingModalities []string    `json:"teachingModalities" validate:"unique,dive,modality"`
	Technology         Technology  `json:"technology"`
	SubmittedBy        string      `json:"submittedBy" validate:"required"`
}

// QueryFilter narrows the submissions listed on the dashboard.
type QueryFilter struct {
	Search   string `query:"search"`
	Modality string `query:"modality"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Modality = core.CleanString(qf.Modality)
	if strings.EqualFold(qf.Modality, "all") {
		qf.Modality = ""
	}
}

// setCount accepts the numeric shapes produced by JSON decoding and Go callers.
func setCount(dst *int, field string, value interface{}) error {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 {
			return fieldErr(field, errNotInteger)
		}
		n = int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return fieldErr(field, errNotInteger)
		}
		n = int(i)
	default:
		return fieldErr(field, errNotInteger)
	}
	if n < 0 {
		return fieldErr(field, errNegative)
	}
	*dst = n
	return nil
}

func setFlag(dst *bool, field string, value interface{}) error {
	b, ok := value.(bool)
	if !ok {
		return fieldErr(field, errNotBool)
	}
	*dst = b
	return nil
}

func fieldErr(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}
