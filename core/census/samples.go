package census

import (
	"time"

	"github.com/trezcool/censo/core/school"
)

// SampleSubmissions returns the demonstration records shown when nothing was submitted yet.
func SampleSubmissions() []Submission {
	return []Submission{
		{
			ID: "1",
			Form: Form{
				SelectedSchool:     &school.School{Name: "Escola Municipal João Silva", INEP: "23456789"},
				ClassroomsCount:    5,
				Classrooms:         sampleClassrooms(5),
				TeachingModalities: []string{ModalityAnosIniciais, ModalityAnosFinais},
				Technology: Technology{
					RoboticsKits:      2,
					Chromebooks:       15,
					Notebooks:         8,
					Modems:            3,
					Printers:          2,
					DefectiveModems:   1,
					HasSchoolInternet: true,
				},
			},
			SubmittedAt: time.Date(2024, time.January, 15, 13, 0, 0, 0, time.UTC),
			SubmittedBy: "Maria Santos",
		},
		{
			ID: "2",
			Form: Form{
				SelectedSchool:     &school.School{Name: "Escola Estadual Maria Santos", INEP: "34567890"},
				ClassroomsCount:    8,
				Classrooms:         sampleClassrooms(8),
				TeachingModalities: []string{ModalityAnosIniciais, ModalityAnosFinais, ModalityEJA},
				Technology: Technology{
					RoboticsKits:      1,
					Chromebooks:       20,
					Notebooks:         12,
					Modems:            4,
					Printers:          3,
					HasSchoolInternet: true,
				},
			},
			SubmittedAt: time.Date(2024, time.January, 16, 13, 0, 0, 0, time.UTC),
			SubmittedBy: "João Silva",
		},
	}
}

func sampleClassrooms(n int) []Classroom {
	classrooms := make([]Classroom, n)
	for i := range classrooms {
		classrooms[i] = newClassroom(i + 1)
	}
	return classrooms
}
