package census

import (
	"math"
	"strings"

	"github.com/trezcool/censo/core"
)

const chartLabelMax = 20

func TotalSchools(subs []Submission) int { return len(subs) }

func TotalClassrooms(subs []Submission) int {
	var total int
	for _, s := range subs {
		total += s.ClassroomsCount
	}
	return total
}

func TotalChromebooks(subs []Submission) int {
	var total int
	for _, s := range subs {
		total += s.Technology.Chromebooks
	}
	return total
}

func SchoolsWithInternet(subs []Submission) int {
	var n int
	for _, s := range subs {
		if s.Technology.HasSchoolInternet {
			n++
		}
	}
	return n
}

// InternetPercentage is the rounded share of schools with internet, 0 when there are none.
func InternetPercentage(subs []Submission) int {
	if len(subs) == 0 {
		return 0
	}
	return int(math.Round(float64(SchoolsWithInternet(subs)) / float64(len(subs)) * 100))
}

type TechnologyRow struct {
	School       string `json:"school"`
	Chromebooks  int    `json:"chromebooks"`
	Notebooks    int    `json:"notebooks"`
	RoboticsKits int    `json:"roboticsKits"`
}

// TechnologyBySchool returns one chart row per submission, in submission order.
func TechnologyBySchool(subs []Submission) []TechnologyRow {
	rows := make([]TechnologyRow, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, TechnologyRow{
			School:       core.Truncate(s.SchoolName(), chartLabelMax),
			Chromebooks:  s.Technology.Chromebooks,
			Notebooks:    s.Technology.Notebooks,
			RoboticsKits: s.Technology.RoboticsKits,
		})
	}
	return rows
}

type ModalityCount struct {
	Name  string `json:"name"`
	Count int    `json:"value"`
}

// ModalityDistribution counts submissions per modality, in first-seen order.
func ModalityDistribution(subs []Submission) []ModalityCount {
	counts := make([]ModalityCount, 0)
	index := make(map[string]int)
	for _, s := range subs {
		for _, m := range s.TeachingModalities {
			i, ok := index[m]
			if !ok {
				i = len(counts)
				index[m] = i
				counts = append(counts, ModalityCount{Name: m})
			}
			counts[i].Count++
		}
	}
	return counts
}

// Summary is the metrics bundle shown on top of the dashboard.
type Summary struct {
	TotalSchools        int `json:"totalSchools"`
	TotalClassrooms     int `json:"totalClassrooms"`
	TotalChromebooks    int `json:"totalChromebooks"`
	SchoolsWithInternet int `json:"schoolsWithInternet"`
	InternetPercentage  int `json:"internetPercentage"`
	RegisteredSchools   int `json:"registeredSchools"`
	PendingSchools      int `json:"pendingSchools"`
}

// Summarize computes the dashboard metrics. Pending schools are registry schools
// without any submission, counted by distinct INEP.
func Summarize(subs []Submission, registryCount int) Summary {
	submitted := make(map[string]struct{})
	for _, s := range subs {
		if inep := s.SchoolINEP(); inep != "" {
			submitted[inep] = struct{}{}
		}
	}
	pending := registryCount - len(submitted)
	if pending < 0 {
		pending = 0
	}
	return Summary{
		TotalSchools:        TotalSchools(subs),
		TotalClassrooms:     TotalClassrooms(subs),
		TotalChromebooks:    TotalChromebooks(subs),
		SchoolsWithInternet: SchoolsWithInternet(subs),
		InternetPercentage:  InternetPercentage(subs),
		RegisteredSchools:   registryCount,
		PendingSchools:      pending,
	}
}

// Filter keeps the submissions whose school name or INEP contains qf.Search
// and, when set, that include qf.Modality.
func Filter(subs []Submission, qf QueryFilter) []Submission {
	qf.Clean()
	search := strings.ToLower(qf.Search)

	found := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.SchoolName()), search) &&
			!strings.Contains(s.SchoolINEP(), search) {
			continue
		}
		if qf.Modality != "" && !s.HasModality(qf.Modality) {
			continue
		}
		found = append(found, s)
	}
	return found
}
