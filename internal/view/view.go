// Package view renders the site. Components are gomponents node trees exposed
// as templ components, so handlers serve them with templ.Handler.
package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/content"
	"github.com/codecraftpk/craftsite/internal/logos"
)

// Mode selects how much of the page Page renders inline.
type Mode int

const (
	// ModeDeferred renders Header and Hero and a loading boundary that the
	// client script fills from /sections.
	ModeDeferred Mode = iota
	// ModeFull renders every section inline.
	ModeFull
)

// Part names a deferred fragment.
type Part string

const (
	PartMain   Part = "main"
	PartFooter Part = "footer"
)

// ParsePart maps a query value onto a Part, defaulting to PartMain.
func ParsePart(s string) Part {
	if Part(s) == PartFooter {
		return PartFooter
	}
	return PartMain
}

// ContactModel is the server-side view of the contact form.
type ContactModel struct {
	Draft      contact.Draft
	Submitting bool
	Toast      *contact.Notification
}

// CanSubmit mirrors contact.Flow.CanSubmit for rendering.
func (c ContactModel) CanSubmit() bool {
	return !c.Submitting && c.Draft.Complete()
}

// Model is everything a page render needs.
type Model struct {
	Site    *content.Site
	Logos   []logos.Entry
	Contact ContactModel
	Mode    Mode
	Year    int
	// Selection opens the logo overlay on first paint.
	Selection *logos.ImageEntry
}

// Static asset paths referenced by the page head.
const (
	StylesheetPath = "/static/site.css"
	ScriptPath     = "/static/live.js"
	LivePath       = "/live"
	SectionsPath   = "/sections"
)

func component(n g.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return n.Render(w)
	})
}

// Page renders the whole document.
func Page(m Model) templ.Component {
	return component(pageNode(m))
}

// Deferred renders the fragment that replaces a loading boundary.
func Deferred(m Model, part Part) templ.Component {
	if part == PartFooter {
		return component(footerNode(m.Site, m.Year))
	}
	return component(sectionsNode(m))
}

func pageNode(m Model) g.Node {
	site := m.Site
	return h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.Meta(h.Name("description"), h.Content(site.Company.Tagline)),
				g.El("title", g.Text(site.Company.Name)),
				h.Link(h.Rel("stylesheet"), h.Href(StylesheetPath)),
				h.Script(h.Src(ScriptPath), h.Defer()),
			),
			h.Body(h.Class("site"), h.Data("live-url", LivePath),
				headerNode(site),
				h.Main(
					heroNode(site),
					g.If(m.Mode == ModeFull, sectionsNode(m)),
					g.If(m.Mode != ModeFull, boundary(PartMain, "py-24", "Loading...")),
				),
				g.If(m.Mode == ModeFull, footerNode(site, m.Year)),
				g.If(m.Mode != ModeFull, boundary(PartFooter, "py-12", "Loading footer...")),
			),
		),
	)
}

// boundary is the placeholder the client swaps for GET /sections?part=...
func boundary(part Part, class, label string) g.Node {
	return h.Div(h.ID("deferred-"+string(part)), h.Class("deferred "+class),
		h.Data("src", SectionsPath+"?part="+string(part)),
		h.Aria("busy", "true"),
		h.Div(h.Class("container loading"), g.Text(label)),
		h.NoScript(h.A(h.Href("/?full=1"), g.Text("Show the full page"))),
	)
}

func sectionsNode(m Model) g.Node {
	return g.Group{
		statsNode(m.Site.Stats),
		aboutNode(m.Site.About),
		servicesNode(m.Site.Services),
		portfolioNode(m.Site.Portfolio),
		teamNode(m.Site.Team),
		careerNode(m.Site.Company.Email, m.Site.Openings),
		clientsNode(m.Logos, m.Selection),
		faqNode(m.Site.FAQ),
		contactNode(m.Site.Company, m.Contact),
	}
}

func sectionHeading(eyebrow, title, highlight, lead string) g.Node {
	return h.Div(h.Class("section-heading"),
		g.If(eyebrow != "", h.Span(h.Class("eyebrow"), g.Text(eyebrow))),
		h.H2(g.Text(title), g.If(highlight != "", g.Group{g.Text(" "), h.Span(h.Class("gradient-text"), g.Text(highlight))})),
		g.If(lead != "", h.P(h.Class("lead"), g.Text(lead))),
	)
}
