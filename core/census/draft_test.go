package census

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/censo/core"
)

func TestDraft_SelectSchool(t *testing.T) {
	d := NewDraft("d1", newTestRegistry(t))

	assert.True(t, d.SelectSchool(escolaB.INEP))
	if assert.NotNil(t, d.Form().SelectedSchool) {
		assert.Equal(t, escolaB, *d.Form().SelectedSchool)
	}

	assert.False(t, d.SelectSchool("99999999"))
	assert.Nil(t, d.Form().SelectedSchool)
}

func TestDraft_SetClassroomCount(t *testing.T) {
	d := NewDraft("d1", newTestRegistry(t))

	require.NoError(t, d.SetClassroomCount(3))
	form := d.Form()
	assert.Equal(t, 3, form.ClassroomsCount)
	require.Len(t, form.Classrooms, 3)
	for i, c := range form.Classrooms {
		assert.Equal(t, newClassroom(i+1), c)
	}
	assert.Equal(t, "classroom-3", form.Classrooms[2].ID)

	// resizing discards previous edits
	require.NoError(t, d.UpdateClassroomField(0, "tvs", 2))
	require.NoError(t, d.SetClassroomCount(2))
	form = d.Form()
	assert.Len(t, form.Classrooms, 2)
	assert.Equal(t, 0, form.Classrooms[0].TVs)

	require.NoError(t, d.SetClassroomCount(0))
	assert.Empty(t, d.Form().Classrooms)

	err := d.SetClassroomCount(-1)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, 0, d.Form().ClassroomsCount)

	require.NoError(t, d.SetClassroomCount(MaxClassrooms))
	for _, n := range []int{MaxClassrooms + 1, 1 << 60} {
		err = d.SetClassroomCount(n)
		assert.True(t, core.IsValidationError(err))
		assert.Equal(t, errTooManyClassrooms.Error(), err.Error())
	}
	assert.Len(t, d.Form().Classrooms, MaxClassrooms)
}

func TestDraft_UpdateClassroomField(t *testing.T) {
	d := NewDraft("d1", newTestRegistry(t))
	require.NoError(t, d.SetClassroomCount(2))

	tests := []struct {
		name    string
		index   int
		field   string
		value   interface{}
		wantErr bool
	}{
		{name: "int", index: 0, field: "outlets", value: 4},
		{name: "json number", index: 1, field: "chairs", value: float64(30)},
		{name: "json.Number", index: 1, field: "fans", value: json.Number("2")},
		{name: "bool", index: 0, field: "hasInternet", value: true},
		{name: "unknown field", index: 0, field: "doors", value: 1, wantErr: true},
		{name: "negative", index: 0, field: "tvs", value: -1, wantErr: true},
		{name: "fraction", index: 0, field: "tvs", value: 1.5, wantErr: true},
		{name: "wrong type", index: 0, field: "hasAirConditioning", value: "yes", wantErr: true},
		{name: "string count", index: 0, field: "studentCapacity", value: "30", wantErr: true},
		{name: "index out of range", index: 2, field: "tvs", value: 1, wantErr: true},
		{name: "negative index", index: -1, field: "tvs", value: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := d.Form()
			err := d.UpdateClassroomField(tt.index, tt.field, tt.value)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err), "got %v", err)
				assert.Equal(t, before, d.Form())
				return
			}
			assert.NoError(t, err)
		})
	}

	form := d.Form()
	assert.Equal(t, 4, form.Classrooms[0].Outlets)
	assert.True(t, form.Classrooms[0].HasInternet)
	assert.Equal(t, 30, form.Classrooms[1].Chairs)
	assert.Equal(t, 2, form.Classrooms[1].Fans)
	assert.Len(t, form.Classrooms, form.ClassroomsCount)
}

func TestDraft_ToggleModality(t *testing.T) {
	d := NewDraft("d1", newTestRegistry(t))

	require.NoError(t, d.ToggleModality(ModalityEJA, true))
	require.NoError(t, d.ToggleModality(ModalityIntegral, true))
	require.NoError(t, d.ToggleModality(ModalityEJA, true))
	assert.Equal(t, []string{ModalityEJA, ModalityIntegral}, d.Form().TeachingModalities)

	require.NoError(t, d.ToggleModality(ModalityIntegral, false))
	require.NoError(t, d.ToggleModality(ModalityBilingue, false))
	assert.Equal(t, []string{ModalityEJA}, d.Form().TeachingModalities)

	err := d.ToggleModality("Ensino Médio", true)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, []string{ModalityEJA}, d.Form().TeachingModalities)
}

func TestDraft_UpdateTechnologyField(t *testing.T) {
	d := NewDraft("d1", newTestRegistry(t))

	require.NoError(t, d.UpdateTechnologyField("chromebooks", 12))
	require.NoError(t, d.UpdateTechnologyField("hasSchoolInternet", true))
	assert.True(t, core.IsValidationError(d.UpdateTechnologyField("printers", -2)))
	assert.True(t, core.IsValidationError(d.UpdateTechnologyField("tablets", 2)))

	tech := d.Form().Technology
	assert.Equal(t, Technology{Chromebooks: 12, HasSchoolInternet: true}, tech)
}

func TestDraft_Finalize(t *testing.T) {
	at := time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC)
	d := NewDraft("d1", newTestRegistry(t))

	_, err := d.Finalize("s1", "Ana", at)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, ErrNoSchool.Error(), err.Error())

	d.SelectSchool(escolaA.INEP)
	_, err = d.Finalize("s1", "  ", at)
	assert.True(t, core.IsValidationError(err))

	require.NoError(t, d.SetClassroomCount(1))
	sub, err := d.Finalize("s1", " Ana ", at)
	require.NoError(t, err)
	assert.Equal(t, "s1", sub.ID)
	assert.Equal(t, "Ana", sub.SubmittedBy)
	assert.Equal(t, at, sub.SubmittedAt)
	assert.Equal(t, escolaA.INEP, sub.SchoolINEP())
	assert.Len(t, sub.Classrooms, 1)

	// later draft edits do not leak into the finalized submission
	require.NoError(t, d.UpdateClassroomField(0, "tvs", 3))
	assert.Equal(t, 0, sub.Classrooms[0].TVs)

	_, err = d.Finalize("s2", "Ana", at)
	assert.Equal(t, ErrDraftNotFound, err)

	d.Reopen()
	sub, err = d.Finalize("s2", "Ana", at)
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Classrooms[0].TVs)
}

func TestDraft_Apply(t *testing.T) {
	d := NewDraft("d1", newTestRegistry(t))
	ns := NewSubmission{
		SchoolINEP:         escolaC.INEP,
		ClassroomsCount:    2,
		Classrooms:         []Classroom{{ID: "ignored", Outlets: 3, HasInternet: true}},
		TeachingModalities: []string{ModalityAnosIniciais, ModalityAnosIniciais},
		Technology:         Technology{Notebooks: 5, Modems: 1},
		SubmittedBy:        "Ana",
	}
	require.NoError(t, d.Apply(ns))

	form := d.Form()
	assert.Equal(t, escolaC, *form.SelectedSchool)
	assert.Equal(t, []Classroom{
		{ID: "classroom-1", Outlets: 3, HasInternet: true},
		{ID: "classroom-2"},
	}, form.Classrooms)
	assert.Equal(t, []string{ModalityAnosIniciais}, form.TeachingModalities)
	assert.Equal(t, Technology{Notebooks: 5, Modems: 1}, form.Technology)

	ns.Classrooms = make([]Classroom, 3)
	assert.True(t, core.IsValidationError(NewDraft("d2", newTestRegistry(t)).Apply(ns)))
}
