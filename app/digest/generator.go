package digest

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/press-digest/app/curation"
)

// Generator renders a curated panel as an RSS 2.0 channel.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

var panelTitles = map[curation.Panel]string{
	curation.PanelSector:    "Sector",
	curation.PanelEditorial: "Impacto social",
	curation.PanelSocial:    "Redes sociales",
}

func PanelTitle(panel curation.Panel) string {
	return cmp.Or(panelTitles[panel], string(panel))
}

func (g *Generator) Run(panel curation.Panel, identity string, articles []curation.Article) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", fmt.Sprintf("Press Digest: %s", PanelTitle(panel)), 4)
	g.writeElement(&buf, "link", g.baseURL, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Curated %s panel for %s", panel, identity), 4)

	if g.baseURL != "" {
		selfLink := fmt.Sprintf("%s/feeds/%s", g.baseURL, panel)
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	for _, a := range articles {
		if !a.PublishedAt.IsZero() {
			lastBuildDate = a.PublishedAt
			break
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Press-Digest/%s", g.version), 4)
	g.writeElement(&buf, "language", "es", 4)

	for _, a := range articles {
		g.writeItem(&buf, a)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, a curation.Article) {
	buf.WriteString("    <item>\n")

	link := ""
	if a.Navigable() {
		link = a.URL
	}

	if link != "" {
		buf.WriteString("      <guid isPermaLink=\"true\">")
		xml.EscapeText(buf, []byte(link))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", a.Title, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", cmp.Or(a.Description, "No description available"), 6)

	if !a.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", a.PublishedAt.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "source", a.SourceName, 6)

	for _, phrase := range a.Keyphrases {
		g.writeElement(buf, "category", phrase, 6)
	}

	if a.ImageURL != "" && a.ImageURL != curation.PlaceholderImage {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n",
			html.EscapeString(a.ImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
