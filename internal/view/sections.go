package view

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/codecraftpk/craftsite/internal/content"
	"github.com/codecraftpk/craftsite/internal/navigation"
)

// Header renders the fixed site header with desktop and mobile navigation.
func Header(site *content.Site) templ.Component { return component(headerNode(site)) }

// Hero renders the landing section.
func Hero(site *content.Site) templ.Component { return component(heroNode(site)) }

// StatsCounter renders the headline figures. The client animates the count up
// to data-count; the rendered text is the final value.
func StatsCounter(stats []content.Stat) templ.Component { return component(statsNode(stats)) }

func About(about content.About) templ.Component { return component(aboutNode(about)) }

func Services(services []content.Service) templ.Component { return component(servicesNode(services)) }

func Portfolio(projects []content.Project) templ.Component { return component(portfolioNode(projects)) }

func Team(members []content.Member) templ.Component { return component(teamNode(members)) }

// Career renders the openings with mailto apply links addressed to email.
func Career(email string, openings []content.Opening) templ.Component {
	return component(careerNode(email, openings))
}

func FAQ(questions []content.Question) templ.Component { return component(faqNode(questions)) }

// Footer renders the page footer. A zero year omits it from the copyright.
func Footer(site *content.Site, year int) templ.Component { return component(footerNode(site, year)) }

func navLinks(class string) g.Node {
	return h.Ul(h.Class(class),
		g.Map(navigation.Links, func(l navigation.Link) g.Node {
			return h.Li(h.A(h.Href(l.Href), h.Data("nav", l.Href), g.Text(l.Name)))
		}),
	)
}

func headerNode(site *content.Site) g.Node {
	return h.Header(h.ID("site-header"), h.Class("site-header"),
		h.Nav(h.Class("container nav"), h.Aria("label", "Main"),
			h.A(h.Class("brand"), h.Href("#home"), h.Data("nav", "#home"), g.Text(site.Company.Name)),
			navLinks("nav-links"),
			h.A(h.Class("btn btn-gradient nav-cta"), h.Href(navigation.CTAHref), h.Data("nav", navigation.CTAHref), g.Text("Get Started")),
			h.Button(h.Type("button"), h.Class("menu-toggle"),
				h.Data("action", "menu.toggle"),
				h.Aria("controls", "mobile-menu"), h.Aria("expanded", "false"), h.Aria("label", "Toggle menu"),
				h.Span(h.Class("menu-icon")),
			),
		),
		h.Div(h.ID("mobile-menu"), h.Class("mobile-menu"), g.Attr("hidden"),
			navLinks("mobile-links"),
			h.A(h.Class("btn btn-gradient"), h.Href(navigation.CTAHref), h.Data("nav", navigation.CTAHref), g.Text("Get Started")),
		),
	)
}

func ctaLink(l content.Link, class string) g.Node {
	return h.A(h.Class(class), h.Href(l.Href), h.Data("nav", l.Href), g.Text(l.Label))
}

func heroNode(site *content.Site) g.Node {
	hero := site.Hero
	return h.Section(h.ID("home"), h.Class("hero"),
		h.Div(h.Class("container hero-inner"),
			h.H1(
				g.Text(hero.Heading), g.Text(" "),
				h.Span(h.Class("gradient-text"), g.Text(hero.Highlight)),
				h.Br(),
				h.Span(h.Class("subheading"), g.Text(hero.Subheading)),
			),
			h.P(h.Class("lead"), g.Text(hero.Body)),
			h.Div(h.Class("hero-actions"),
				ctaLink(hero.PrimaryCTA, "btn btn-gradient"),
				ctaLink(hero.SecondaryCTA, "btn btn-outline"),
			),
		),
	)
}

func statsNode(stats []content.Stat) g.Node {
	return h.Section(h.Class("stats"),
		h.Div(h.Class("container stats-grid"),
			g.Map(stats, func(s content.Stat) g.Node {
				return h.Div(h.Class("glass-card stat"),
					h.Div(h.Class("stat-value"),
						h.Span(h.Data("count", strconv.Itoa(s.Value)), g.Text(strconv.Itoa(s.Value))),
						g.Text(s.Suffix),
					),
					h.Div(h.Class("stat-label"), g.Text(s.Label)),
				)
			}),
		),
	)
}

func aboutNode(about content.About) g.Node {
	return h.Section(h.ID("about"), h.Class("section about"),
		h.Div(h.Class("container about-grid"),
			h.Div(
				sectionHeading("About Us", about.Heading, about.Highlight, ""),
				h.P(h.Class("lead"), g.Text(about.Body)),
				h.Ul(h.Class("features"),
					g.Map(about.Features, func(f string) g.Node { return h.Li(g.Text(f)) }),
				),
			),
			h.Div(h.Class("about-figures"),
				g.Map(about.Figures, func(f content.Figure) g.Node {
					return h.Div(h.Class("glass-card figure"),
						h.Strong(g.Text(f.Value)), h.Span(g.Text(f.Label)),
					)
				}),
				g.If(about.Since != "", h.P(h.Class("since"), g.Text(about.Since))),
			),
		),
	)
}

// servicesNode uses native disclosure elements for the detail text.
func servicesNode(services []content.Service) g.Node {
	return h.Section(h.ID("services"), h.Class("section services"),
		h.Div(h.Class("container"),
			sectionHeading("Our Services", "What We", "Offer", "Comprehensive software solutions tailored to your business needs."),
			h.Div(h.Class("card-grid"),
				g.Map(services, func(s content.Service) g.Node {
					return h.Article(h.Class("glass-card service"),
						h.H3(g.Text(s.Title)),
						h.P(g.Text(s.Description)),
						g.If(s.Details != "", h.Details(
							h.Summary(g.Text("Learn more")),
							h.P(h.Class("details"), g.Text(s.Details)),
						)),
					)
				}),
			),
		),
	)
}

func portfolioNode(projects []content.Project) g.Node {
	return h.Section(h.ID("portfolio"), h.Class("section portfolio"),
		h.Div(h.Class("container"),
			sectionHeading("Portfolio", "Our Recent", "Work", "A selection of research and engineering projects we have delivered."),
			h.Div(h.Class("card-grid"),
				g.Map(projects, func(p content.Project) g.Node {
					return h.Article(h.Class("glass-card project"),
						h.H3(g.Text(p.Title)),
						h.P(g.Text(p.Description)),
						h.Ul(h.Class("tags"),
							g.Map(p.Tech, func(t string) g.Node { return h.Li(g.Text(t)) }),
						),
						h.Div(h.Class("project-links"),
							g.If(p.Link != "", externalLink(p.Link, "View project")),
							g.If(p.Repo != "", externalLink(p.Repo, "Source")),
						),
					)
				}),
			),
		),
	)
}

func externalLink(href, label string) g.Node {
	return h.A(h.Href(href), h.Target("_blank"), h.Rel("noopener noreferrer"), g.Text(label))
}

func teamNode(members []content.Member) g.Node {
	return h.Section(h.ID("team"), h.Class("section team"),
		h.Div(h.Class("container"),
			sectionHeading("Our Team", "Meet the", "Experts", "The people who turn your ideas into working software."),
			h.Div(h.Class("card-grid team-grid"),
				g.Map(members, func(m content.Member) g.Node {
					return h.Article(h.Class("glass-card member"),
						h.Div(h.Class("avatar"), h.Aria("hidden", "true"), g.Text(m.Initials())),
						h.H3(g.Text(m.Name)),
						h.P(h.Class("role"), g.Text(m.Role)),
						h.P(h.Class("bio"), g.Text(m.Bio)),
						socialLinks(m),
					)
				}),
			),
		),
	)
}

func socialLinks(m content.Member) g.Node {
	links := []struct{ href, label string }{
		{m.Social.LinkedIn, "LinkedIn"},
		{m.Social.Twitter, "Twitter"},
		{m.Social.GitHub, "GitHub"},
		{m.Social.Website, "Website"},
	}
	var nodes g.Group
	for _, l := range links {
		if l.href == "" {
			continue
		}
		nodes = append(nodes, h.Li(h.A(h.Href(l.href), h.Target("_blank"), h.Rel("noopener noreferrer"),
			h.Aria("label", fmt.Sprintf("%s on %s", m.Name, l.label)), g.Text(l.label))))
	}
	if len(nodes) == 0 {
		return nil
	}
	return h.Ul(h.Class("socials"), nodes)
}

func careerNode(email string, openings []content.Opening) g.Node {
	return h.Section(h.ID("career"), h.Class("section career"),
		h.Div(h.Class("container"),
			sectionHeading("Careers", "Join Our", "Team", "We are always looking for talented people who love building great software."),
			h.Div(h.Class("openings"),
				g.Map(openings, func(o content.Opening) g.Node {
					return h.Article(h.Class("glass-card opening"),
						h.H3(g.Text(o.Title)),
						h.Ul(h.Class("opening-meta"),
							h.Li(g.Text(o.Type)), h.Li(g.Text(o.Location)), h.Li(g.Text(o.Experience)),
						),
						h.P(g.Text(o.Description)),
						h.A(h.Class("btn btn-gradient"), h.Href(content.ApplyMailto(email, o)), g.Text("Apply Now")),
					)
				}),
			),
			h.Div(h.Class("glass-card resume"),
				h.H3(g.Text("Don't see a role that fits?")),
				h.P(g.Text("Send us your resume and we will reach out when something opens up.")),
				h.A(h.Class("btn btn-outline"), h.Href(content.ResumeMailto(email)), g.Text("Send Resume")),
			),
		),
	)
}

func faqNode(questions []content.Question) g.Node {
	return h.Section(h.ID("faq"), h.Class("section faq"),
		h.Div(h.Class("container narrow"),
			sectionHeading("FAQ", "Frequently Asked", "Questions", "Everything you need to know about working with us."),
			g.Map(questions, func(q content.Question) g.Node {
				return h.Details(h.Class("glass-card faq-item"),
					h.Summary(g.Text(q.Question)),
					h.P(g.Text(q.Answer)),
				)
			}),
		),
	)
}

func footerNode(site *content.Site, year int) g.Node {
	company := site.Company
	copyright := "All rights reserved."
	if year > 0 {
		copyright = fmt.Sprintf("© %d %s. All rights reserved.", year, company.Name)
	}
	return h.Footer(h.ID("site-footer"), h.Class("site-footer"),
		h.Div(h.Class("container footer-grid"),
			h.Div(
				h.A(h.Class("brand"), h.Href("#home"), h.Data("nav", "#home"), g.Text(company.Name)),
				h.P(g.Text(company.Tagline)),
			),
			h.Div(h.H4(g.Text("Quick Links")), navLinks("footer-links")),
			h.Div(
				h.H4(g.Text("Contact")),
				h.P(h.A(h.Href("mailto:"+company.Email), g.Text(company.Email))),
				h.P(g.Text(company.Phone)),
				h.P(g.Map(company.Office, func(line string) g.Node { return g.Group{g.Text(line), h.Br()} })),
			),
		),
		h.P(h.Class("container copyright"), g.Text(copyright)),
	)
}
