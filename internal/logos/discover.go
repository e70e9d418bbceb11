package logos

import (
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Asset is a discovered image file. Path is slash separated and relative to
// the asset root; URL is the reference the page loads it from.
type Asset struct {
	Path string
	URL  string
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
}

// IsImage reports whether name has one of the recognised image extensions.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// Discover walks fsys and returns every image file in walk order. urlPrefix is
// prepended to each path to form the asset URL.
func Discover(fsys fs.FS, urlPrefix string) ([]Asset, error) {
	var assets []Asset
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImage(d.Name()) {
			return nil
		}
		assets = append(assets, Asset{
			Path: p,
			URL:  strings.TrimSuffix(urlPrefix, "/") + "/" + p,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

var logoPattern = regexp.MustCompile(`^logo([0-9]+)$`)

// Stem returns the file name of p without directory or extension.
func Stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// DisplayName turns a stem into the name shown for an entry.
func DisplayName(stem string) string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(stem)
}

// logoNumber returns the digits captured from a logo<N> stem.
func logoNumber(stem string) (string, bool) {
	// Casers carry state, so each call folds with its own.
	m := logoPattern.FindStringSubmatch(cases.Fold().String(stem))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// lessNumeric compares two decimal digit strings by value without parsing
// them, so arbitrarily long runs never overflow.
func lessNumeric(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// BuildEntries orders assets into carousel entries. When any asset is named
// logo<N> only those are kept, ordered by N; otherwise every asset is used in
// discovery order. An empty collection yields the placeholders.
func BuildEntries(assets []Asset) []Entry {
	type numbered struct {
		asset  Asset
		number string
	}

	var matched []numbered
	for _, a := range assets {
		if n, ok := logoNumber(Stem(a.Path)); ok {
			matched = append(matched, numbered{asset: a, number: n})
		}
	}

	if len(matched) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessNumeric(matched[i].number, matched[j].number)
		})
		entries := make([]Entry, len(matched))
		for i, m := range matched {
			entries[i] = imageEntry(m.asset)
		}
		return entries
	}

	if len(assets) == 0 {
		return Placeholders()
	}

	entries := make([]Entry, len(assets))
	for i, a := range assets {
		entries[i] = imageEntry(a)
	}
	return entries
}

func imageEntry(a Asset) ImageEntry {
	return ImageEntry{Source: a.URL, Name: DisplayName(Stem(a.Path))}
}
