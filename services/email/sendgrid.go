package emailsvc

import (
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/censo/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	sendgridCategory = "censo-escolar"
)

type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	sandbox    bool // sendgrid validates the request but delivers nothing
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return &sendgridService{
		key:        conf.SendgridAPIKey,
		from:       sgEmail(conf.DefaultFromEmail),
		subjPrefix: "[" + conf.AppName + "] ",
		sandbox:    conf.TestMode,
		logger:     logger,
	}
}

// SendMessages renders and posts every deliverable message in its own goroutine.
func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if err := msg.Render(); err != nil {
				svc.logger.Error("rendering email", errors.Wrap(err, msg.Subject))
				return
			}
			if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
				return
			}
			if err := svc.send(svc.prepare(*msg)); err != nil {
				svc.logger.Error("sending email", errors.Wrap(err, msg.Subject))
			}
		}(msg)
	}
}

func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	p.AddCCs(sgEmails(msg.Cc)...)
	p.AddBCCs(sgEmails(msg.Bcc)...)

	m := sgmail.NewV3Mail().SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddCategories(sendgridCategory)
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		m.AddAttachment(sgmail.NewAttachment().
			SetContent(at.Content.String()). // already base64
			SetType(at.ContentType).
			SetFilename(at.Filename).
			SetDisposition("attachment"))
	}

	if svc.sandbox {
		settings := sgmail.NewMailSettings()
		settings.SetSandboxMode(sgmail.NewSetting(true))
		m.SetMailSettings(settings)
	}
	return m
}

func (svc sendgridService) send(m *sgmail.SGMailV3) error {
	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid replied %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	out := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, sgEmail(a))
	}
	return out
}
