package view

import (
	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/content"
)

// Submit button labels.
const (
	LabelSend    = "Send Message"
	LabelSending = "Sending..."
)

// ContactPath is where the form posts when scripting is unavailable.
const ContactPath = "/contact"

// Contact renders the contact section: company details, the form and the
// toast region.
func Contact(company content.Company, m ContactModel) templ.Component {
	return component(contactNode(company, m))
}

// Toast renders a single notification.
func Toast(n contact.Notification) templ.Component {
	return component(toastNode(&n))
}

func contactNode(company content.Company, m ContactModel) g.Node {
	return h.Section(h.ID("contact"), h.Class("section contact"),
		h.Div(h.Class("container"),
			sectionHeading("Contact Us", "Let's Build Something", "Amazing",
				"Have a project in mind? Get in touch and let's discuss how we can help bring your vision to life."),
			h.Div(h.Class("contact-grid"),
				h.Div(h.Class("contact-info"),
					h.H3(g.Text("Get in Touch")),
					h.P(g.Text("Whether you're looking to build a new product, improve your existing platform, or just want to say hello, we'd love to hear from you.")),
					infoItem("Email", g.Text(company.Email)),
					infoItem("Phone", g.Text(company.Phone)),
					infoItem("Office", g.Map(company.Office, func(line string) g.Node { return g.Group{g.Text(line), h.Br()} })),
				),
				formNode(m),
			),
		),
		h.Div(h.ID("toast"), h.Class("toast-region"), h.Role("status"), h.Aria("live", "polite"),
			toastNode(m.Toast),
		),
	)
}

func infoItem(title string, body g.Node) g.Node {
	return h.Div(h.Class("info-item"), h.H4(g.Text(title)), h.P(body))
}

func formNode(m ContactModel) g.Node {
	d := m.Draft
	label := LabelSend
	if m.Submitting {
		label = LabelSending
	}
	canSubmit := "false"
	if m.CanSubmit() {
		canSubmit = "true"
	}
	return g.El("form", h.ID("contact-form"), h.Class("glass-card contact-form"),
		h.Method("post"), h.Action(ContactPath),
		h.Data("live", "contact"), h.Data("can-submit", canSubmit),
		h.Input(h.Type("text"), h.Name(contact.FieldWebsite), h.Value(d.Website),
			h.Class("hidden"), g.Attr("tabindex", "-1"), g.Attr("autocomplete", "off"), h.Aria("hidden", "true")),
		h.Div(h.Class("field-row"),
			inputField(contact.FieldName, "Name", "text", d.Name, "John Doe"),
			inputField(contact.FieldEmail, "Email", "email", d.Email, "john@example.com"),
		),
		inputField(contact.FieldSubject, "Subject", "text", d.Subject, "Project Inquiry"),
		h.Div(h.Class("field"),
			g.El("label", g.Attr("for", "contact-"+contact.FieldMessage), g.Text("Message")),
			h.Textarea(h.ID("contact-"+contact.FieldMessage), h.Name(contact.FieldMessage), g.Attr("rows", "5"),
				h.Required(), h.Placeholder("Tell us about your project..."), g.Text(d.Message)),
		),
		h.Button(h.Type("submit"), h.Class("btn btn-gradient btn-block"),
			g.If(m.Submitting, h.Disabled()),
			g.Text(label),
		),
	)
}

func inputField(name, label, typ, value, placeholder string) g.Node {
	id := "contact-" + name
	return h.Div(h.Class("field"),
		g.El("label", g.Attr("for", id), g.Text(label)),
		h.Input(h.ID(id), h.Type(typ), h.Name(name), h.Value(value), h.Required(), h.Placeholder(placeholder)),
	)
}

func toastNode(n *contact.Notification) g.Node {
	if n == nil {
		return nil
	}
	return h.Div(h.Class("toast toast-"+string(n.Severity)), h.Data("severity", string(n.Severity)),
		g.Text(n.Message),
	)
}
