package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"vision-api/internal/domain"
)

// Brand is printed in mail footers.
const Brand = "ATE Leslie Project"

const layout = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { text-align: center; padding: 20px 0; border-bottom: 2px solid #eee; }
    .content { padding: 20px 0; }
    .footer { text-align: center; padding: 20px 0; border-top: 2px solid #eee; font-size: 0.9em; color: #666; }
    .unsubscribe { color: #999; font-size: 0.8em; }
  </style>
</head>
<body>
  <div class="header"><h1>{{.Title}}</h1></div>
  <div class="content">{{template "content" .}}</div>
  <div class="footer">
    <p>&copy; {{.Year}} {{.Brand}}</p>
    {{- if .Unsubscribe}}
    <p class="unsubscribe">To unsubscribe, sign in to your account and change your newsletter preference.</p>
    {{- end}}
  </div>
</body>
</html>`

var templates = map[string]*template.Template{
	"reset": parse("reset", `<p>A password reset was requested for your account.</p>
<p><a href="{{.Data.Link}}">Reset my password</a></p>
<p>This link expires in {{.Data.Minutes}} minutes. If you did not ask for it, ignore this mail.</p>`),

	"contact_notice": parse("contact_notice", `<p><strong>From:</strong> {{.Data.Name}}</p>
<p><strong>Email:</strong> {{.Data.Email}}</p>
<p><strong>Subject:</strong> {{.Data.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Data.Content}}</p>`),

	"contact_confirmation": parse("contact_confirmation", `<p>Hello {{.Data.Name}},</p>
<p>We received your message and will answer as soon as possible.</p>
<p><strong>Your message:</strong></p>
<p>{{.Data.Content}}</p>`),

	"newsletter": parse("newsletter", `{{.Data}}`),
}

func parse(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layout))
	return template.Must(t.New("content").Parse(content))
}

type page struct {
	Title       string
	Brand       string
	Year        int
	Unsubscribe bool
	Data        any
}

func render(name, title string, unsubscribe bool, data any) (string, error) {
	var buf bytes.Buffer
	err := templates[name].ExecuteTemplate(&buf, name, page{
		Title:       title,
		Brand:       Brand,
		Year:        time.Now().Year(),
		Unsubscribe: unsubscribe,
		Data:        data,
	})
	if err != nil {
		return "", fmt.Errorf("render %s mail: %w", name, err)
	}
	return buf.String(), nil
}

// ResetPassword renders the mail carrying the reset link.
func ResetPassword(link string, ttl time.Duration) (subject, body string, err error) {
	subject = "Password reset"
	body, err = render("reset", subject, false, struct {
		Link    string
		Minutes int
	}{link, int(ttl.Minutes())})
	return subject, body, err
}

// ContactNotice is sent to the commercial address. Every user supplied
// value is escaped.
func ContactNotice(m *domain.ContactMessage) (subject, body string, err error) {
	body, err = render("contact_notice", "New contact message", false, m)
	return m.Subject, body, err
}

func ContactConfirmation(m *domain.ContactMessage) (subject, body string, err error) {
	subject = "We received your message"
	body, err = render("contact_confirmation", subject, false, m)
	return subject, body, err
}

// Newsletter wraps administrator authored HTML in the newsletter layout.
// The content is trusted and inserted as is; the subject is escaped.
func Newsletter(subject, content string) (string, error) {
	return render("newsletter", subject, true, template.HTML(content))
}
