package mailer

import (
	"fmt"
	"html"
	"strings"

	"sales-assistant-be/internal/entity"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendLeadNotification(toEmail string, lead *entity.Lead) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
	}
}

// BuildLeadMessage renders the sales inbox notification for a captured lead.
func BuildLeadMessage(from, to string, lead *entity.Lead) *gomail.Message {
	m := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Reply-To", lead.Email)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Intent))

	row := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return fmt.Sprintf("<tr><td style=\"padding:4px 12px 4px 0;color:#666;\">%s</td><td>%s</td></tr>\n", label, html.EscapeString(value))
	}

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	b.WriteString("\n<h2>New lead from the website assistant</h2>\n<table>\n")
	b.WriteString(row("Name", lead.Name))
	b.WriteString(row("Email", lead.Email))
	b.WriteString(row("Phone", lead.Phone))
	b.WriteString(row("Company", lead.Company))
	b.WriteString(row("Intent", lead.Intent))
	b.WriteString(row("Confidence", fmt.Sprintf("%.2f", lead.Confidence)))
	b.WriteString(row("Topics", strings.Join(lead.Topics, ", ")))
	b.WriteString(row("Session", lead.SessionId))
	b.WriteString("</table>\n")
	fmt.Fprintf(&b, `<p style="color:#666;">Last message:</p><blockquote>%s</blockquote>`, html.EscapeString(lead.Message))
	b.WriteString(`</div>`)

	m.SetBody("text/html", b.String())
	return m
}

func (s *emailService) SendLeadNotification(toEmail string, lead *entity.Lead) error {
	m := BuildLeadMessage(s.senderEmail, toEmail, lead)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send lead notification to %s: %w", toEmail, err)
	}
	return nil
}
