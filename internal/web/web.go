// Package web serves the dashboard's server-rendered page shells and the
// static assets they load.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"threatdash/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options configure the page shells
type Options struct {
	AppName      string
	GridPageSize int // card-grid pages
	PageSize     int // table pages
}

// Pages renders the HTML shells
type Pages struct {
	appName   string
	templates map[string]*template.Template
	resources map[string]Resource
	nav       []navItem
	logger    *logger.Logger
}

type navItem struct {
	Path  string
	Label string
}

type view struct {
	AppName  string
	Title    string
	Active   string
	Nav      []navItem
	Resource *Resource
}

// simple pages and the template file that renders each
var simplePages = map[string]string{
	"home":      "home.html",
	"login":     "login.html",
	"signup":    "signup.html",
	"dashboard": "dashboard.html",
}

// New parses all templates up front so a broken template fails at startup
func New(opts Options, log *logger.Logger) (*Pages, error) {
	if opts.GridPageSize <= 0 {
		opts.GridPageSize = 9
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.AppName == "" {
		opts.AppName = "ThreatDash"
	}

	p := &Pages{
		appName:   opts.AppName,
		templates: make(map[string]*template.Template),
		resources: make(map[string]Resource),
		nav:       []navItem{{Path: "/dashboard", Label: "Dashboard"}},
		logger:    log.WithComponent("web"),
	}

	for name, file := range simplePages {
		t, err := parse(file)
		if err != nil {
			return nil, err
		}
		p.templates[name] = t
	}

	resourceTmpl, err := parse("resource.html")
	if err != nil {
		return nil, err
	}
	for _, r := range resources(opts.GridPageSize, opts.PageSize) {
		p.resources[r.Slug] = r
		p.templates[r.Slug] = resourceTmpl
		p.nav = append(p.nav, navItem{Path: "/" + r.Slug, Label: r.Title})
	}
	return p, nil
}

func parse(file string) (*template.Template, error) {
	t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
	}
	return t, nil
}

// Handler renders the named page
func (p *Pages) Handler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := p.templates[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		v := view{AppName: p.appName, Active: "/" + name, Nav: p.nav, Title: p.appName}
		if res, ok := p.resources[name]; ok {
			v.Resource = &res
			v.Title = res.Title
		}

		// render to a buffer so a template error never sends half a page
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
			p.logger.Error().Err(err).Str("page", name).Msg("failed to render page")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

// Names lists every renderable page
func (p *Pages) Names() []string {
	names := make([]string, 0, len(p.templates))
	for name := range p.templates {
		names = append(names, name)
	}
	return names
}

// Static serves the embedded assets; mount it under /static/
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
