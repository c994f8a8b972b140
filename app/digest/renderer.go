package digest

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/lysyi3m/press-digest/app/curation"
)

// Message is a rendered digest ready for delivery.
type Message struct {
	Subject        string
	HTML           string
	Text           string
	UnsubscribeURL string
}

type section struct {
	Title    string
	Articles []curation.Article
}

type view struct {
	Name           string
	Date           string
	Sections       []section
	Total          int
	UnsubscribeURL string
}

const perSectionInEmail = 10

const htmlBody = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"><title>Press Digest {{.Date}}</title></head>
<body style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto;">
<h1>Press Digest</h1>
<p>{{if .Name}}Hola {{.Name}},{{else}}Hola,{{end}} estas son las noticias del {{.Date}}.</p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if not .Articles}}<p>Sin noticias en esta sección.</p>{{end}}
{{range .Articles}}
<div style="margin-bottom: 16px;">
  <h3 style="margin: 0;">{{if .Navigable}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h3>
  <p style="margin: 4px 0; color: #666;">{{.SourceName}}{{if not .PublishedAt.IsZero}} · {{.PublishedAt.Format "02/01/2006 15:04"}}{{end}}</p>
  {{if .Description}}<p style="margin: 4px 0;">{{.Description}}</p>{{end}}
</div>
{{end}}
{{end}}
{{if .UnsubscribeURL}}<p style="font-size: 12px; color: #999;"><a href="{{.UnsubscribeURL}}">Cancelar suscripción</a></p>{{end}}
</body>
</html>
`

const textBody = `Press Digest {{.Date}}
{{range .Sections}}
== {{.Title}} ==
{{range $i, $a := .Articles}}
[{{inc $i}}] {{$a.Title}}
    {{$a.SourceName}}{{if $a.Navigable}}
    {{$a.URL}}{{end}}
{{else}}
Sin noticias en esta sección.
{{end}}{{end}}
{{if .UnsubscribeURL}}Cancelar suscripción: {{.UnsubscribeURL}}{{end}}
`

// Renderer builds digest emails from curated panels.
type Renderer struct {
	baseURL string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func NewRenderer(baseURL string) *Renderer {
	funcs := texttemplate.FuncMap{"inc": func(i int) int { return i + 1 }}

	return &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		html:    htmltemplate.Must(htmltemplate.New("digest.html").Parse(htmlBody)),
		text:    texttemplate.Must(texttemplate.New("digest.txt").Funcs(funcs).Parse(textBody)),
	}
}

// Render produces the digest for one recipient. The unsubscribe link is
// omitted when no token or base URL is known.
func (r *Renderer) Render(name, token string, panels curation.Panels, now time.Time) (Message, error) {
	v := view{
		Name: name,
		Date: now.Format("02/01/2006"),
	}

	for _, panel := range curation.PanelOrder {
		articles := panels.Get(panel).Articles
		if len(articles) > perSectionInEmail {
			articles = articles[:perSectionInEmail]
		}
		v.Sections = append(v.Sections, section{Title: PanelTitle(panel), Articles: articles})
		v.Total += len(articles)
	}

	if token != "" && r.baseURL != "" {
		v.UnsubscribeURL = fmt.Sprintf("%s/unsubscribe/%s", r.baseURL, token)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.Execute(&htmlBuf, v); err != nil {
		return Message{}, fmt.Errorf("failed to render HTML body: %w", err)
	}
	if err := r.text.Execute(&textBuf, v); err != nil {
		return Message{}, fmt.Errorf("failed to render text body: %w", err)
	}

	return Message{
		Subject:        fmt.Sprintf("Press Digest %s (%d noticias)", v.Date, v.Total),
		HTML:           htmlBuf.String(),
		Text:           textBuf.String(),
		UnsubscribeURL: v.UnsubscribeURL,
	}, nil
}
