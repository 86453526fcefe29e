// Package ignore implements gitignore-style entry filtering with doublestar globs.
package ignore

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Filter        = (*Matcher)(nil)
	_ ports.FilterBuilder = (*Builder)(nil)
)

// skippedDirectories are never tracked, whatever the rules say.
var skippedDirectories = map[string]bool{
	".git": true,
	".jj":  true,
}

// ignoreFiles are read from the root and each of its ancestors, in this
// order. Later files take precedence over earlier ones.
var ignoreFiles = []string{".ignore", ".gitignore"}

type verdict uint8

const (
	noMatch verdict = iota
	ignored
	whitelisted
)

type rule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool
}

func (r rule) matches(rel string) bool {
	target := rel
	if !r.anchored {
		target = path.Base(rel)
	}
	ok, err := doublestar.Match(r.pattern, target)
	return err == nil && ok
}

// ruleSet is the rules of one directory. Within a set the last matching rule wins.
type ruleSet struct {
	base  string
	rules []rule
}

func (s ruleSet) match(p string, isDir bool) verdict {
	rel, err := filepath.Rel(s.base, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return noMatch
	}
	rel = filepath.ToSlash(rel)
	for i := len(s.rules) - 1; i >= 0; i-- {
		r := s.rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		if r.matches(rel) {
			if r.negate {
				return whitelisted
			}
			return ignored
		}
	}
	return noMatch
}

// Matcher is a compiled filter for one watch root.
type Matcher struct {
	hidden bool
	sets   []ruleSet
}

// Ignore reports whether the entry at p is excluded. Sets are consulted from
// the most specific to the least specific; the first verdict wins. Entries no
// rule mentions are excluded only when hidden and hidden entries are off.
func (m *Matcher) Ignore(p string, isDir bool) bool {
	name := filepath.Base(p)
	if isDir && skippedDirectories[name] {
		return true
	}
	for _, s := range m.sets {
		switch s.match(p, isDir) {
		case ignored:
			return true
		case whitelisted:
			return false
		case noMatch:
		}
	}
	return !m.hidden && strings.HasPrefix(name, ".")
}

// Builder compiles Matchers.
type Builder struct{}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build compiles the filter for root. Extra patterns are anchored at root and
// override every ignore file.
func (b *Builder) Build(root string, opts domain.IgnoreOptions) (ports.Filter, error) {
	m := &Matcher{hidden: opts.Hidden}

	if len(opts.Patterns) > 0 {
		set := ruleSet{base: root}
		for _, line := range opts.Patterns {
			r, ok, err := parseLine(line)
			if err != nil {
				return nil, err
			}
			if ok {
				set.rules = append(set.rules, r)
			}
		}
		m.sets = append(m.sets, set)
	}

	if opts.NoIgnore {
		return m, nil
	}

	for dir := root; ; {
		set, err := loadDir(dir)
		if err != nil {
			return nil, err
		}
		if len(set.rules) > 0 {
			m.sets = append(m.sets, set)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return m, nil
}

func loadDir(dir string) (ruleSet, error) {
	set := ruleSet{base: dir}
	for _, name := range ignoreFiles {
		file := filepath.Join(dir, name)
		data, err := os.ReadFile(file) //nolint:gosec // ignore files of the watched tree
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return set, zerr.With(zerr.Wrap(err, domain.ErrIgnoreFileReadFailed.Error()), "file", file)
		}
		for i, line := range strings.Split(string(data), "\n") {
			r, ok, err := parseLine(line)
			if err != nil {
				return set, zerr.With(zerr.With(err, "file", file), "line", i+1)
			}
			if ok {
				set.rules = append(set.rules, r)
			}
		}
	}
	return set, nil
}

// parseLine parses one gitignore line. ok is false for blanks and comments.
func parseLine(line string) (rule, bool, error) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasSuffix(line, `\ `) {
		line = strings.TrimRight(line, " \t")
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false, nil
	}

	var r rule
	switch {
	case strings.HasPrefix(line, "!"):
		r.negate = true
		line = line[1:]
	case strings.HasPrefix(line, `\!`), strings.HasPrefix(line, `\#`):
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.anchored = true
		line = strings.TrimLeft(line, "/")
	}
	if strings.Contains(line, "/") {
		r.anchored = true
	}
	if strings.HasPrefix(line, "**/") {
		// "**/x" matches x at any depth, same as an unanchored name.
		r.anchored = strings.Contains(line[3:], "/")
		if !r.anchored {
			line = line[3:]
		}
	}
	if line == "" {
		return rule{}, false, nil
	}
	if !doublestar.ValidatePattern(line) {
		return rule{}, false, zerr.With(zerr.Wrap(domain.ErrInvalidIgnorePattern, "parse"), "pattern", line)
	}
	r.pattern = line
	return r, true, nil
}
