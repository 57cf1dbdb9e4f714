package census

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/school"
)

// MaxClassrooms bounds the classrooms of one school. Keep the max= request tags in sync.
const MaxClassrooms = 200

var (
	// errors
	ErrNoSchool            = errors.New("por favor, selecione uma escola")
	ErrNoSubmitter         = errors.New("informe quem está enviando o censo")
	ErrNotFound            = errors.New("submission not found")
	ErrDraftNotFound       = errors.New("draft not found")
	errUnknownField        = errors.New("campo desconhecido")
	errNotInteger          = errors.New("deve ser um número inteiro")
	errNotBool             = errors.New("deve ser verdadeiro ou falso")
	errNegative            = errors.New("não pode ser negativo")
	errUnknownModality     = errors.New("modalidade de ensino desconhecida")
	errClassroomOutOfRange = errors.New("sala de aula inexistente")
	errTooManyClassrooms   = errors.New("no máximo 200 salas de aula")
	errDuplicateModality   = errors.New("modalidade de ensino repetida")
	errCountMismatch       = errors.New("quantidade de salas não confere com a lista")
)

// SchoolFinder resolves INEP codes to schools.
type SchoolFinder interface {
	FindByINEP(inep string) (school.School, bool)
}

// Draft is a census form being filled in. It is safe for concurrent use.
type Draft struct {
	id       string
	registry SchoolFinder

	mu        sync.Mutex
	form      Form
	updatedAt time.Time
	submitted bool
}

func NewDraft(id string, registry SchoolFinder) *Draft {
	return &Draft{
		id:       id,
		registry: registry,
		form: Form{
			Classrooms:         []Classroom{},
			TeachingModalities: []string{},
		},
		updatedAt: nowFunc().UTC(),
	}
}

func (d *Draft) ID() string { return d.id }

// Form returns a snapshot of the draft content.
func (d *Draft) Form() Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form.clone()
}

func (d *Draft) UpdatedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updatedAt
}

func (d *Draft) touch() { d.updatedAt = nowFunc().UTC() }

// SelectSchool sets the selected school; it is cleared when inep is unknown.
func (d *Draft) SelectSchool(inep string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.touch()

	s, ok := d.registry.FindByINEP(inep)
	if !ok {
		d.form.SelectedSchool = nil
		return false
	}
	d.form.SelectedSchool = &s
	return true
}

// SetClassroomCount regenerates the classrooms list with n zeroed classrooms.
// Previous per-classroom edits are discarded.
func (d *Draft) SetClassroomCount(n int) error {
	if n < 0 {
		return fieldErr("classroomsCount", errNegative)
	}
	if n > MaxClassrooms {
		return fieldErr("classroomsCount", errTooManyClassrooms)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.touch()

	classrooms := make([]Classroom, n)
	for i := range classrooms {
		classrooms[i] = newClassroom(i + 1)
	}
	d.form.ClassroomsCount = n
	d.form.Classrooms = classrooms
	return nil
}

// UpdateClassroomField sets one field of the classroom at index (0-based).
func (d *Draft) UpdateClassroomField(index int, field string, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.form.Classrooms) {
		return fieldErr("classrooms["+strconv.Itoa(index)+"]", errClassroomOutOfRange)
	}
	// validate on a copy so a failed update leaves the draft untouched
	classroom := d.form.Classrooms[index]
	if err := classroom.set(field, value); err != nil {
		return err
	}
	d.form.Classrooms[index] = classroom
	d.touch()
	return nil
}

// ToggleModality adds (checked) or removes a teaching modality.
func (d *Draft) ToggleModality(modality string, checked bool) error {
	if !IsModality(modality) {
		return fieldErr("teachingModalities", errUnknownModality)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.touch()

	kept := make([]string, 0, len(d.form.TeachingModalities)+1)
	var found bool
	for _, m := range d.form.TeachingModalities {
		if m == modality {
			found = true
			if !checked {
				continue
			}
		}
		kept = append(kept, m)
	}
	if checked && !found {
		kept = append(kept, modality)
	}
	d.form.TeachingModalities = kept
	return nil
}

func (d *Draft) UpdateTechnologyField(field string, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tech := d.form.Technology
	if err := tech.set(field, value); err != nil {
		return err
	}
	d.form.Technology = tech
	d.touch()
	return nil
}

// Finalize builds the Submission to persist. It fails when no school was selected.
// A draft finalizes once; later calls return ErrDraftNotFound until Reopen.
func (d *Draft) Finalize(id, submitter string, at time.Time) (Submission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.submitted {
		return Submission{}, ErrDraftNotFound
	}
	if d.form.SelectedSchool == nil {
		return Submission{}, core.NewValidationError(ErrNoSchool, core.FieldError{Field: "selectedSchool", Error: ErrNoSchool.Error()})
	}
	submitter = core.CleanString(submitter)
	if submitter == "" {
		return Submission{}, core.NewValidationError(ErrNoSubmitter, core.FieldError{Field: "submittedBy", Error: ErrNoSubmitter.Error()})
	}
	d.submitted = true
	return Submission{
		ID:          id,
		Form:        d.form.clone(),
		SubmittedAt: at,
		SubmittedBy: submitter,
	}, nil
}

// Reopen allows a finalized draft to be finalized again, after its submission failed to persist.
func (d *Draft) Reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitted = false
}

// Apply runs a complete form through the draft operations.
func (d *Draft) Apply(ns NewSubmission) error {
	d.SelectSchool(ns.SchoolINEP)
	if err := d.SetClassroomCount(ns.ClassroomsCount); err != nil {
		return err
	}
	if len(ns.Classrooms) > ns.ClassroomsCount {
		return fieldErr("classrooms", errClassroomOutOfRange)
	}
	for i, c := range ns.Classrooms {
		for _, f := range c.fields() {
			if err := d.UpdateClassroomField(i, f.name, f.value); err != nil {
				return err
			}
		}
	}
	for _, m := range ns.TeachingModalities {
		if err := d.ToggleModality(m, true); err != nil {
			return err
		}
	}
	for _, f := range ns.Technology.fields() {
		if err := d.UpdateTechnologyField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}
