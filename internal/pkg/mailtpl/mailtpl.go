package mailtpl

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/talentmatch/messaging-service/internal/model"
)

const previewLength = 140

//go:embed templates/*.tmpl
var files embed.FS

type Data struct {
	SenderName string
	Preview    string
	Link       string
}

type Mail struct {
	Subject string
	HTML    string
	Text    string
}

type set struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

type Renderer struct {
	sets map[string]set
}

func New() *Renderer {
	r := &Renderer{sets: make(map[string]set)}
	for _, kind := range []string{model.NotificationMessage, model.NotificationApplication} {
		r.sets[kind] = set{
			subject: texttemplate.Must(texttemplate.ParseFS(files, "templates/"+kind+".subject.tmpl")),
			html:    htmltemplate.Must(htmltemplate.ParseFS(files, "templates/"+kind+".html.tmpl")),
			text:    texttemplate.Must(texttemplate.ParseFS(files, "templates/"+kind+".text.tmpl")),
		}
	}
	return r
}

func (r *Renderer) Render(kind string, data Data) (Mail, error) {
	s, ok := r.sets[kind]
	if !ok {
		return Mail{}, fmt.Errorf("unknown mail template %q", kind)
	}

	var subject, html, text bytes.Buffer
	if err := s.subject.Execute(&subject, data); err != nil {
		return Mail{}, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := s.html.Execute(&html, data); err != nil {
		return Mail{}, fmt.Errorf("failed to render html body: %w", err)
	}
	if err := s.text.Execute(&text, data); err != nil {
		return Mail{}, fmt.Errorf("failed to render text body: %w", err)
	}

	return Mail{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// Link points at the conversation inside the web app.
func Link(baseURL, conversationID string) string {
	return strings.TrimRight(baseURL, "/") + "/messages?conversation=" + url.QueryEscape(conversationID)
}

// Preview shortens content to a single line of at most previewLength runes.
func Preview(content string) string {
	line := strings.Join(strings.Fields(content), " ")
	runes := []rune(line)
	if len(runes) <= previewLength {
		return line
	}
	return string(runes[:previewLength-1]) + "…"
}
