package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

// Template names.
const (
	TemplateCancellation = "cancellation.html"
	TemplateWinback      = "winback.html"
	TemplateRegistration = "registration.html"
	TemplateContact      = "contact.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// StudentLine is one child mentioned in a message.
type StudentLine struct {
	Name       string
	TeamName   string
	SchoolName string
	Price      string
}

// CampaignData feeds the cancellation and winback templates.
type CampaignData struct {
	FirstName      string
	Students       []StudentLine
	SiteURL        string
	UnsubscribeURL string
}

// RegistrationData feeds the registration confirmation.
type RegistrationData struct {
	FirstName    string
	Students     []StudentLine
	DashboardURL string
}

// ContactData feeds the admin contact notification.
type ContactData struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Renderer executes the embedded HTML templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("mail").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer panics when the embedded templates do not parse.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
