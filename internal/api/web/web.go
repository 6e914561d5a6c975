// Package web renders the landing page of the map front end.
package web

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/rotisserie/eris"

	"github.com/nitromap/nitromap/internal/domain"
)

//go:embed templates/*.html
var templates embed.FS

// ContentSecurityPolicy allows the page to load its own scripts, the map
// library and the tile server.
const ContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://unpkg.com https://cdn.plot.ly; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"img-src 'self' data: https://*.tile.openstreetmap.org https://unpkg.com; " +
	"connect-src 'self'; frame-ancestors 'none'"

var landuseLabels = map[string]string{
	"cropgrass": "Crop & Grass Category",
	"forest":    "Forest Category",
	"livestock": "Livestock Category",
}

// Option is one entry of a select element.
type Option struct {
	Value string
	Label string
}

// Page is the data rendered into the index template.
type Page struct {
	Title     string
	Version   string
	Levels    []Option
	Variables []Option
	Landuses  []Option
}

// NewPage builds the page data from the domain vocabularies.
func NewPage(version string) Page {
	p := Page{Title: "Danish nitrogen emissions", Version: version}
	for _, l := range domain.Levels {
		p.Levels = append(p.Levels, Option{Value: string(l), Label: string(l)})
	}
	for _, v := range domain.Variables {
		p.Variables = append(p.Variables, Option{Value: string(v), Label: string(v)})
	}
	for _, lu := range domain.Landuses {
		label, ok := landuseLabels[lu]
		if !ok {
			label = lu
		}
		p.Landuses = append(p.Landuses, Option{Value: lu, Label: label})
	}
	return p
}

// RenderIndex renders the landing page.
func RenderIndex(p Page) ([]byte, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse index template")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, eris.Wrap(err, "web: render index template")
	}
	return buf.Bytes(), nil
}
