package census

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "02/01/2006 15:04"

var header = []string{
	"Nome da Escola",
	"INEP",
	"Quantidade de Salas",
	"Modalidades",
	"Chromebooks",
	"Notebooks",
	"Kits de Robótica",
	"Modems",
	"Impressoras",
	"Modems com Defeito",
	"Internet na Escola",
	"Enviado por",
	"Data de Envio",
}

// Header returns the export column titles.
func Header() []string {
	return append([]string(nil), header...)
}

// ToRows flattens subs into export rows (without header), dates rendered in loc.
func ToRows(subs []Submission, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.SchoolName(),
			s.SchoolINEP(),
			strconv.Itoa(s.ClassroomsCount),
			strings.Join(s.TeachingModalities, ", "),
			strconv.Itoa(s.Technology.Chromebooks),
			strconv.Itoa(s.Technology.Notebooks),
			strconv.Itoa(s.Technology.RoboticsKits),
			strconv.Itoa(s.Technology.Modems),
			strconv.Itoa(s.Technology.Printers),
			strconv.Itoa(s.Technology.DefectiveModems),
			YesNo(s.Technology.HasSchoolInternet),
			s.SubmittedBy,
			FormatDate(s.SubmittedAt, loc),
		})
	}
	return rows
}

func YesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}
