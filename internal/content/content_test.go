package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecraftpk/craftsite/internal/errors"
)

func TestDefault(t *testing.T) {
	site, err := Default()
	require.NoError(t, err)
	require.NoError(t, site.Validate())

	assert.Equal(t, "Code Craft Pakistan", site.Company.Name)
	assert.Equal(t, "codecraftpakistan@gmail.com", site.Company.Email)
	assert.Equal(t, "+92 348 1923575", site.Company.Phone)
	assert.Len(t, site.Stats, 4)
	assert.Equal(t, Stat{Value: 99, Suffix: "%", Label: "Client Satisfaction"}, site.Stats[2])
	assert.Len(t, site.Services, 6)
	assert.Len(t, site.Portfolio, 3)
	assert.Len(t, site.Team, 8)
	assert.Len(t, site.FAQ, 6)
	require.Len(t, site.Openings, 1)
	assert.Equal(t, "Flutter Developer", site.Openings[0].Title)
	assert.Equal(t, "#portfolio", site.Hero.PrimaryCTA.Href)
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	a.Company.Name = "changed"

	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "Code Craft Pakistan", b.Company.Name)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	t.Run("empty path uses built-in", func(t *testing.T) {
		site, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "Code Craft Pakistan", site.Company.Name)
	})

	t.Run("override replaces present keys only", func(t *testing.T) {
		path := write("faq.yaml", "faq:\n  - question: Is this a test?\n    answer: Yes.\n")
		site, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []Question{{Question: "Is this a test?", Answer: "Yes."}}, site.FAQ)
		assert.Len(t, site.Services, 6)
	})

	t.Run("unknown keys rejected", func(t *testing.T) {
		path := write("typo.yaml", "compnay:\n  name: x\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
		assert.Contains(t, err.Error(), "compnay")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(err))
	})

	t.Run("blank company name invalid", func(t *testing.T) {
		path := write("blank.yaml", "company:\n  name: \"\"\n  email: a@b.co\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "company.name")
	})
}

func TestMember_Initials(t *testing.T) {
	tests := map[string]string{
		"Bilal Ahmad":       "BA",
		"Umar Tanveer Khan": "UT",
		"amna":              "A",
		"":                  "",
	}
	for name, want := range tests {
		assert.Equal(t, want, Member{Name: name}.Initials(), name)
	}
}

func TestMailto(t *testing.T) {
	got := ApplyMailto("jobs@example.com", Opening{Title: "Flutter Developer"})
	assert.Equal(t,
		"mailto:jobs@example.com?subject=Application%3A%20Flutter%20Developer"+
			"&body=Hello%2C%0A%0AI%20would%20like%20to%20apply%20for%20the%20%22Flutter%20Developer%22%20position.%0A%0ARegards%2C%0A%5BYour%20Name%5D",
		got)

	got = ResumeMailto("jobs@example.com")
	assert.Equal(t,
		"mailto:jobs@example.com?subject=Resume%20Submission"+
			"&body=Hello%2C%0A%0APlease%20find%20my%20resume%20attached.%0A%0ARegards%2C%0A%5BYour%20Name%5D",
		got)
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc%26d", encodeComponent("a b+c&d"))
}
