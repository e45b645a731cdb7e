// internal/words/words.go
//
// Word catalog for the word game.
//
// Responsibilities:
//   - Parse "word: tag, tag" catalog files into an immutable Catalog.
//   - Load the catalog from a file named by the caller, or fall back to the
//     embedded default shipped in the assets package.
//   - Answer the lookups the word strategy needs: sorted words, sorted tag
//     vocabulary, and tag membership.
//
// Catalog format:
//   # comment
//   apple: food, fruit
//   elephant: animal
//
// Constraints:
//   • Words and tags are lowercased and trimmed.
//   • Every word carries at least one tag; duplicate words are rejected.
//   • A Catalog is never mutated after construction, so one value is shared
//     by every session in the process.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/robalobadob/gamezone/assets"
)

// ErrInvalidCatalog is returned for malformed or empty catalogs.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog maps each word to its category tags.
type Catalog struct {
	tags  map[string][]string // word -> sorted, de-duplicated tags
	words []string            // sorted word list
	vocab []string            // sorted union of all tags
}

// NewCatalog builds a Catalog from a word -> tags mapping.
func NewCatalog(entries map[string][]string) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no words", ErrInvalidCatalog)
	}
	c := &Catalog{tags: make(map[string][]string, len(entries))}
	seenTag := map[string]struct{}{}
	for raw, rawTags := range entries {
		w := normalize(raw)
		if w == "" {
			return nil, fmt.Errorf("%w: empty word", ErrInvalidCatalog)
		}
		if _, dup := c.tags[w]; dup {
			return nil, fmt.Errorf("%w: duplicate word %q", ErrInvalidCatalog, w)
		}
		var tags []string
		for _, t := range rawTags {
			t = normalize(t)
			if t == "" || slices.Contains(tags, t) {
				continue
			}
			tags = append(tags, t)
			seenTag[t] = struct{}{}
		}
		if len(tags) == 0 {
			return nil, fmt.Errorf("%w: word %q has no tags", ErrInvalidCatalog, w)
		}
		slices.Sort(tags)
		c.tags[w] = tags
		c.words = append(c.words, w)
	}
	slices.Sort(c.words)
	for t := range seenTag {
		c.vocab = append(c.vocab, t)
	}
	slices.Sort(c.vocab)
	return c, nil
}

// Parse reads a catalog in "word: tag, tag" form.
func Parse(r io.Reader) (*Catalog, error) {
	entries := map[string][]string{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		word, rest, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing ':'", ErrInvalidCatalog, line)
		}
		word = normalize(word)
		if _, dup := entries[word]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate word %q", ErrInvalidCatalog, line, word)
		}
		entries[word] = strings.Split(rest, ",")
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewCatalog(entries)
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if path == "" {
		rc, err = assets.DefaultCatalog()
	} else {
		rc, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	c, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", describe(path), err)
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is
// broken, which is a build defect rather than a runtime condition.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load("")
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Words returns the sorted word list.
func (c *Catalog) Words() []string { return slices.Clone(c.words) }

// Vocabulary returns every tag used by the catalog, sorted.
func (c *Catalog) Vocabulary() []string { return slices.Clone(c.vocab) }

// Tags returns the sorted tags of word, or nil for unknown words.
func (c *Catalog) Tags(word string) []string { return slices.Clone(c.tags[word]) }

// HasTag reports whether word carries tag.
func (c *Catalog) HasTag(word, tag string) bool {
	_, found := slices.BinarySearch(c.tags[word], tag)
	return found
}

// Contains reports whether word is in the catalog.
func (c *Catalog) Contains(word string) bool {
	_, ok := c.tags[word]
	return ok
}

// Len is the number of words.
func (c *Catalog) Len() int { return len(c.words) }

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func describe(path string) string {
	if path == "" {
		return "embedded catalog"
	}
	return path
}
