package view

import (
	"strconv"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/codecraftpk/craftsite/internal/logos"
)

// Clients renders the logo strip and the detail overlay. The overlay is
// hidden unless selection is set.
func Clients(entries []logos.Entry, selection *logos.ImageEntry) templ.Component {
	return component(clientsNode(entries, selection))
}

// Overlay renders only the detail overlay.
func Overlay(selection *logos.ImageEntry) templ.Component {
	return component(overlayNode(selection))
}

func clientsNode(entries []logos.Entry, selection *logos.ImageEntry) g.Node {
	items := make(g.Group, 0, len(entries))
	for i, e := range entries {
		items = append(items, logoButton(i, e))
	}
	return h.Section(h.ID("clients"), h.Class("section clients"),
		h.Div(h.Class("container"),
			sectionHeading("", "Our Clients", "", "We don't just build software we build long-term partnerships with clients across industries."),
			h.Div(h.ID("clients-strip"), h.Class("clients-scroll"),
				h.Data("live", "carousel"),
				h.Aria("label", "Client logos carousel"),
				items,
			),
		),
		overlayNode(selection),
	)
}

func logoButton(index int, e logos.Entry) g.Node {
	name := e.DisplayName()
	src, ok := logos.ImageOf(e)
	var body g.Node
	if ok {
		body = h.Img(h.Src(src), h.Alt(name), h.Class("logo"), g.Attr("loading", "lazy"))
	} else {
		body = h.Div(h.Class("logo-placeholder"), h.Span(g.Text(name)))
	}
	return h.Button(h.Type("button"), h.Class("logo-item"),
		h.Data("index", strconv.Itoa(index)),
		g.If(ok, h.Data("src", src)),
		h.Aria("label", "Open "+name),
		body,
	)
}

func overlayNode(selection *logos.ImageEntry) g.Node {
	var src, name string
	if selection != nil {
		src, name = selection.Source, selection.Name
	}
	return h.Div(h.ID("logo-overlay"), h.Class("overlay"),
		h.Role("dialog"), h.Aria("modal", "true"),
		g.If(selection == nil, g.Attr("hidden")),
		h.Div(h.Class("overlay-panel"),
			h.Button(h.Type("button"), h.Class("overlay-close"), h.Data("action", "carousel.close"), h.Aria("label", "Close"), g.Text("✕")),
			h.Img(h.Class("overlay-image"), h.Src(src), h.Alt(name)),
			h.H3(h.Class("overlay-name"), g.Text(name)),
		),
	)
}
