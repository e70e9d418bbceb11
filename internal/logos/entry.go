// Package logos discovers client logo images and turns them into the ordered
// entry list shown by the clients carousel.
package logos

import "fmt"

// Entry is one carousel item. It is either an ImageEntry, which can be opened
// in the detail overlay, or a PlaceholderEntry, which cannot.
type Entry interface {
	DisplayName() string
	isEntry()
}

// ImageEntry is an entry backed by a loadable image.
type ImageEntry struct {
	Source string `json:"src" yaml:"src"`
	Name   string `json:"name" yaml:"name"`
}

// PlaceholderEntry stands in for a client when no images were discovered.
type PlaceholderEntry struct {
	Name string `json:"name" yaml:"name"`
}

func (e ImageEntry) DisplayName() string       { return e.Name }
func (e PlaceholderEntry) DisplayName() string { return e.Name }

func (ImageEntry) isEntry()       {}
func (PlaceholderEntry) isEntry() {}

// ImageOf returns the image source of e and whether e has one.
func ImageOf(e Entry) (string, bool) {
	if img, ok := e.(ImageEntry); ok {
		return img.Source, true
	}
	return "", false
}

// PlaceholderCount is the number of placeholders substituted for an empty
// asset collection.
const PlaceholderCount = 6

// Placeholders returns the fixed placeholder list.
func Placeholders() []Entry {
	entries := make([]Entry, PlaceholderCount)
	for i := range entries {
		entries[i] = PlaceholderEntry{Name: fmt.Sprintf("Client %d", i+1)}
	}
	return entries
}
