// Package content holds the copy shown on the site: company details, services,
// team, openings and the rest. The built-in document can be overridden by a
// YAML file whose keys replace the built-in ones.
package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codecraftpk/craftsite/internal/errors"
)

//go:embed site.yaml
var builtin []byte

// Site is the whole content document.
type Site struct {
	Company   Company    `yaml:"company" json:"company"`
	Hero      Hero       `yaml:"hero" json:"hero"`
	Stats     []Stat     `yaml:"stats" json:"stats"`
	About     About      `yaml:"about" json:"about"`
	Services  []Service  `yaml:"services" json:"services"`
	Portfolio []Project  `yaml:"portfolio" json:"portfolio"`
	Team      []Member   `yaml:"team" json:"team"`
	Openings  []Opening  `yaml:"openings" json:"openings"`
	FAQ       []Question `yaml:"faq" json:"faq"`
}

type Company struct {
	Name    string   `yaml:"name" json:"name"`
	Tagline string   `yaml:"tagline" json:"tagline"`
	Email   string   `yaml:"email" json:"email"`
	Phone   string   `yaml:"phone" json:"phone"`
	Office  []string `yaml:"office" json:"office"`
}

type Link struct {
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

type Hero struct {
	Heading      string `yaml:"heading" json:"heading"`
	Highlight    string `yaml:"highlight" json:"highlight"`
	Subheading   string `yaml:"subheading" json:"subheading"`
	Body         string `yaml:"body" json:"body"`
	PrimaryCTA   Link   `yaml:"primary_cta" json:"primary_cta"`
	SecondaryCTA Link   `yaml:"secondary_cta" json:"secondary_cta"`
}

type Stat struct {
	Value  int    `yaml:"value" json:"value"`
	Suffix string `yaml:"suffix" json:"suffix"`
	Label  string `yaml:"label" json:"label"`
}

type Figure struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type About struct {
	Heading   string   `yaml:"heading" json:"heading"`
	Highlight string   `yaml:"highlight" json:"highlight"`
	Body      string   `yaml:"body" json:"body"`
	Features  []string `yaml:"features" json:"features"`
	Figures   []Figure `yaml:"figures" json:"figures"`
	Since     string   `yaml:"since" json:"since"`
}

type Service struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Details     string `yaml:"details" json:"details"`
}

type Project struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Tech        []string `yaml:"tech" json:"tech"`
	Link        string   `yaml:"link,omitempty" json:"link,omitempty"`
	Repo        string   `yaml:"repo,omitempty" json:"repo,omitempty"`
}

type Social struct {
	LinkedIn string `yaml:"linkedin,omitempty" json:"linkedin,omitempty"`
	Twitter  string `yaml:"twitter,omitempty" json:"twitter,omitempty"`
	GitHub   string `yaml:"github,omitempty" json:"github,omitempty"`
	Website  string `yaml:"website,omitempty" json:"website,omitempty"`
}

type Member struct {
	Name   string `yaml:"name" json:"name"`
	Role   string `yaml:"role" json:"role"`
	Bio    string `yaml:"bio" json:"bio"`
	Image  string `yaml:"image,omitempty" json:"image,omitempty"`
	Social Social `yaml:"social,omitempty" json:"social,omitempty"`
}

// Initials returns up to two initials for avatar placeholders.
func (m Member) Initials() string {
	var out []rune
	for _, word := range strings.Fields(m.Name) {
		for _, r := range word {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}

type Opening struct {
	Title       string `yaml:"title" json:"title"`
	Type        string `yaml:"type" json:"type"`
	Location    string `yaml:"location" json:"location"`
	Experience  string `yaml:"experience" json:"experience"`
	Description string `yaml:"description" json:"description"`
}

type Question struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Default returns the built-in document.
func Default() (*Site, error) {
	var site Site
	if err := decode(builtin, &site); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeContentDocument, "built-in content is invalid", err)
	}
	return &site, nil
}

// Load returns the built-in document with the top-level keys present in the
// file at path replacing their built-in values. An empty path yields the
// built-in document.
func Load(path string) (*Site, error) {
	site, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return site, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeContentDocument, "failed to read content file", err).
			WithContext("path", path)
	}
	if err := decode(data, site); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeContentDocument, fmt.Sprintf("invalid content file %s: %v", path, err))
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return site, nil
}

func decode(data []byte, site *Site) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(site)
}

// Validate checks the fields the page cannot render without.
func (s *Site) Validate() error {
	if strings.TrimSpace(s.Company.Name) == "" {
		return errors.NewConfigError(errors.ErrCodeContentDocument, "company.name is required")
	}
	if strings.TrimSpace(s.Company.Email) == "" {
		return errors.NewConfigError(errors.ErrCodeContentDocument, "company.email is required")
	}
	for i, svc := range s.Services {
		if strings.TrimSpace(svc.Title) == "" {
			return errors.NewConfigError(errors.ErrCodeContentDocument, fmt.Sprintf("services[%d].title is required", i))
		}
	}
	for i, q := range s.FAQ {
		if strings.TrimSpace(q.Question) == "" {
			return errors.NewConfigError(errors.ErrCodeContentDocument, fmt.Sprintf("faq[%d].question is required", i))
		}
	}
	return nil
}

// ApplyMailto returns the mailto link for applying to an opening.
func ApplyMailto(to string, o Opening) string {
	subject := "Application: " + o.Title
	body := fmt.Sprintf("Hello,\n\nI would like to apply for the %q position.\n\nRegards,\n[Your Name]", o.Title)
	return mailto(to, subject, body)
}

// ResumeMailto returns the mailto link for unsolicited resumes.
func ResumeMailto(to string) string {
	return mailto(to, "Resume Submission", "Hello,\n\nPlease find my resume attached.\n\nRegards,\n[Your Name]")
}

func mailto(to, subject, body string) string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s", to, encodeComponent(subject), encodeComponent(body))
}

// encodeComponent percent-encodes s with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
