package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"

	"github.com/bookkeys/bookkeys/clients"
	"github.com/bookkeys/bookkeys/logger"
	gomail "gopkg.in/gomail.v2"
)

// Message is one outbound notification: HTML body, optional custom headers
// and an optional ICS attachment.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Headers map[string]string
	ICS     string
}

// Sender delivers notification messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// GraphSender delivers mail through the Graph sendMail endpoint.
type GraphSender struct {
	Graph clients.GraphClientWrapper
}

func (s *GraphSender) Send(ctx context.Context, msg Message) error {
	var req clients.SendMailRequest
	req.Message.Subject = msg.Subject
	req.Message.Body = clients.ItemBody{ContentType: "HTML", Content: msg.HTML}
	req.Message.ToRecipients = []clients.Recipient{
		{EmailAddress: clients.EmailAddress{Address: msg.To}},
	}
	for name, value := range msg.Headers {
		req.Message.InternetMessageHeaders = append(req.Message.InternetMessageHeaders,
			clients.MessageHeader{Name: name, Value: value})
	}
	if msg.ICS != "" {
		req.Message.Attachments = []clients.FileAttachment{{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         "invite.ics",
			ContentType:  "text/calendar",
			ContentBytes: base64.StdEncoding.EncodeToString([]byte(msg.ICS)),
		}}
	}
	req.SaveToSentItems = true
	return s.Graph.SendMail(ctx, msg.From, req)
}

// SMTPSender delivers mail over SMTP using gomail. Used when
// MAIL_TRANSPORT=smtp, e.g. for tenants without Graph mail permissions.
type SMTPSender struct{}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	from := msg.From
	if envFrom := os.Getenv("FROM_EMAIL"); envFrom != "" {
		from = envFrom
	}
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	for name, value := range msg.Headers {
		m.SetHeader(name, value)
	}
	m.SetBody("text/html", msg.HTML)
	if msg.ICS != "" {
		m.Attach("invite.ics",
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write([]byte(msg.ICS))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {"text/calendar; method=REQUEST"}}),
		)
	}

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		logger.ErrorLogger.Errorf("Invalid SMTP port: %v", err)
		return fmt.Errorf("invalid SMTP port: %w", err)
	}
	smtpHost := os.Getenv("SMTP_HOST")
	dialer := gomail.NewDialer(smtpHost, port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))
	dialer.TLSConfig = &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         smtpHost,
	}

	if err := dialer.DialAndSend(m); err != nil {
		logger.ErrorLogger.Errorf("Failed to send email to %s: %v", msg.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	logger.InfoLogger.Infof("Email sent to %s", msg.To)
	return nil
}

// NewSenderFromEnv picks the mail transport: Graph unless MAIL_TRANSPORT=smtp.
func NewSenderFromEnv(graph clients.GraphClientWrapper) Sender {
	if os.Getenv("MAIL_TRANSPORT") == "smtp" {
		return &SMTPSender{}
	}
	return &GraphSender{Graph: graph}
}

const approvalTemplate = `
<div style="font-family:Segoe UI,Arial,sans-serif">
  <h2 style="margin:0 0 8px 0">{{.Brand}}: Approval required</h2>
  <p style="margin:4px 0"><b>Title:</b> {{.Title}}</p>
  <p style="margin:4px 0"><b>When:</b> {{.When}}</p>
  <p style="margin:4px 0"><b>Requestor:</b> {{.CustomerEmail}}</p>
  <p style="margin:4px 0"><b>Attendees:</b> {{.Attendees}}</p>
  <p style="margin:4px 0"><b>Teams requested:</b> {{.Teams}}</p>
  {{if .Notes}}<p style="margin:4px 0"><b>Notes:</b> {{.Notes}}</p>{{end}}
  <p style="margin:16px 0">
    <a href="{{.ApproveURL}}" style="background:#2563eb;color:#fff;padding:10px 16px;border-radius:6px;text-decoration:none">Approve</a>
    <a href="{{.DeclineURL}}" style="margin-left:12px;color:#6b7280;text-decoration:none">Decline</a>
  </p>
</div>
`

var approvalTmpl = template.Must(template.New("approval").Parse(approvalTemplate))

// ApprovalEmailData feeds the approval notification template. URL fields are
// pre-built; everything else is escaped by html/template.
type ApprovalEmailData struct {
	Brand         string
	Title         string
	When          string
	CustomerEmail string
	Attendees     string
	Teams         string
	Notes         string
	ApproveURL    template.URL
	DeclineURL    template.URL
}

// BuildApprovalHTML renders the approval email body.
func BuildApprovalHTML(data ApprovalEmailData) (string, error) {
	var buf bytes.Buffer
	if err := approvalTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute approval template: %w", err)
	}
	return buf.String(), nil
}
