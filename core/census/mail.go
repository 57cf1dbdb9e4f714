package census

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
)

const receiptTemplate = "submission_receipt"

type receiptData struct {
	SchoolName        string
	INEP              string
	SubmittedBy       string
	SubmittedAt       string
	ClassroomsCount   int
	Chromebooks       int
	Notebooks         int
	RoboticsKits      int
	HasSchoolInternet string
	Modalities        string
}

// NewReceiptMessage returns the e-mail sent to the secretariat for a new submission,
// with the submission attached as a one-row CSV in the export layout.
func NewReceiptMessage(conf *core.Config, sub Submission, loc *time.Location) (*core.EmailMessage, error) {
	data := receiptData{
		SchoolName:        sub.SchoolName(),
		INEP:              sub.SchoolINEP(),
		SubmittedBy:       sub.SubmittedBy,
		SubmittedAt:       FormatDate(sub.SubmittedAt, loc),
		ClassroomsCount:   sub.ClassroomsCount,
		Chromebooks:       sub.Technology.Chromebooks,
		Notebooks:         sub.Technology.Notebooks,
		RoboticsKits:      sub.Technology.RoboticsKits,
		HasSchoolInternet: YesNo(sub.Technology.HasSchoolInternet),
		Modalities:        strings.Join(sub.TeachingModalities, ", "),
	}
	subject := "Censo recebido: " + sub.SchoolName()
	msg := core.NewTemplatedMessage(conf, subject, receiptTemplate, data, conf.Census.NotifyRecipients...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Header())
	_ = w.WriteAll(ToRows([]Submission{sub}, loc))
	if err := w.Error(); err != nil {
		return msg, errors.Wrap(err, "writing receipt csv")
	}
	if err := msg.Attach(&buf, "censo-"+sub.SchoolINEP()+".csv", "text/csv"); err != nil {
		return msg, errors.Wrap(err, "attaching receipt csv")
	}
	return msg, nil
}
