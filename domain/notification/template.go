package notification

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// TemplateData contains all the fields available for email template rendering
type TemplateData struct {
	Greeting      string // Dynamic greeting based on recipient count
	ProjectName   string
	DateFormatted string // e.g., "12/28/2025"
	SessionRef    string // "today's", "yesterday's" or an explicit date
	PresetName    string
	RenderURL     string
	FeaturesURL   string
	SenderName    string
}

// EmailTemplate contains the templates for rendering emails
type EmailTemplate struct {
	SubjectFormat string
	PlainText     string
	HTML          string
}

// DefaultTemplate is the standard email template for sharing renders
var DefaultTemplate = EmailTemplate{
	SubjectFormat: "{{.ProjectName}}: Sonification render of {{.DateFormatted}} session",
	PlainText: `{{.Greeting}}

Here is the sonification render of {{.SessionRef}} session ({{.PresetName}} preset).

Audio: {{.RenderURL}}{{if .FeaturesURL}}
Features: {{.FeaturesURL}}{{end}}

Thanks!
~{{.SenderName}}`,
	HTML: `<div dir="ltr">{{.Greeting}}<br><br>
Here is the <a href="{{.RenderURL}}">sonification render</a> of {{.SessionRef}} session ({{.PresetName}} preset).{{if .FeaturesURL}}<br>
The extracted <a href="{{.FeaturesURL}}">feature data</a> is attached alongside.{{end}}<br><br>
Thanks!<br>
~{{.SenderName}}</div>`,
}

// FormatGreeting creates an appropriate greeting based on number of recipients
// 1 recipient: "Dear John,"
// 2 recipients: "Dear John & Jane,"
// 3+ recipients: "Hey Everyone!"
func FormatGreeting(recipients []Recipient) string {
	switch len(recipients) {
	case 0:
		return "Hello,"
	case 1:
		name := getFirstName(recipients[0].Name)
		return fmt.Sprintf("Dear %s,", name)
	case 2:
		name1 := getFirstName(recipients[0].Name)
		name2 := getFirstName(recipients[1].Name)
		return fmt.Sprintf("Dear %s & %s,", name1, name2)
	default:
		return "Hey Everyone!"
	}
}

// getFirstName extracts the first name from a full name
func getFirstName(fullName string) string {
	if fullName == "" {
		return "Friend"
	}
	for i, c := range fullName {
		if c == ' ' {
			return fullName[:i]
		}
	}
	return fullName
}

// FormatSessionRef returns the reference to the session based on its date
// relative to the current date:
// - Same day: "today's"
// - Yesterday: "yesterday's"
// - Older: "the 12/28" (explicit date reference)
func FormatSessionRef(sessionDate, now time.Time) string {
	// Normalize to date only (ignore time component)
	sessionDay := time.Date(sessionDate.Year(), sessionDate.Month(), sessionDate.Day(), 0, 0, 0, 0, time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	diff := today.Sub(sessionDay).Hours() / 24

	switch {
	case diff == 0:
		return "today's"
	case diff == 1:
		return "yesterday's"
	default:
		return fmt.Sprintf("the %s", sessionDate.Format("1/2"))
	}
}

// RenderSubject renders the email subject using the template
func (t *EmailTemplate) RenderSubject(data TemplateData) (string, error) {
	return renderTemplate("subject", t.SubjectFormat, data)
}

// RenderPlainText renders the plain text email body
func (t *EmailTemplate) RenderPlainText(data TemplateData) (string, error) {
	return renderTemplate("plaintext", t.PlainText, data)
}

// RenderHTML renders the HTML email body
func (t *EmailTemplate) RenderHTML(data TemplateData) (string, error) {
	return renderTemplate("html", t.HTML, data)
}

func renderTemplate(name, tmplStr string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
