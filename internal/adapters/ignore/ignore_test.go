package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/filesentry/internal/adapters/ignore"
	"go.trai.ch/filesentry/internal/core/domain"
)

func TestMatcher_Patterns(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{"no rules", nil, "a.txt", false, false},
		{"basename at any depth", []string{"*.tmp"}, "deep/dir/x.tmp", false, true},
		{"basename does not match other ext", []string{"*.tmp"}, "x.txt", false, false},
		{"dir only skips files", []string{"build/"}, "build", false, false},
		{"dir only matches dirs", []string{"build/"}, "src/build", true, true},
		{"anchored at root", []string{"/out"}, "out", true, true},
		{"anchored not nested", []string{"/out"}, "src/out", true, false},
		{"slash anchors", []string{"docs/*.md"}, "docs/a.md", false, true},
		{"slash anchors nested", []string{"docs/*.md"}, "x/docs/a.md", false, false},
		{"double star prefix", []string{"**/gen"}, "a/b/gen", true, true},
		{"double star inside", []string{"a/**/z.go"}, "a/b/c/z.go", false, true},
		{"negation wins when last", []string{"*.log", "!keep.log"}, "keep.log", false, false},
		{"later rule overrides negation", []string{"!keep.log", "*.log"}, "keep.log", false, true},
		{"comment ignored", []string{"# *.txt"}, "a.txt", false, false},
		{"escaped hash", []string{`\#notes`}, "#notes", false, true},
		{"trailing spaces trimmed", []string{"*.bak   "}, "x.bak", false, true},
	}

	b := ignore.NewBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := b.Build(root, domain.IgnoreOptions{NoIgnore: true, Patterns: tt.patterns})
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Ignore(filepath.Join(root, tt.path), tt.isDir))
		})
	}
}

func TestMatcher_HiddenAndDefaults(t *testing.T) {
	root := t.TempDir()
	b := ignore.NewBuilder()

	f, err := b.Build(root, domain.IgnoreOptions{NoIgnore: true})
	require.NoError(t, err)
	assert.True(t, f.Ignore(filepath.Join(root, ".env"), false))
	assert.True(t, f.Ignore(filepath.Join(root, ".cache"), true))
	assert.True(t, f.Ignore(filepath.Join(root, ".git"), true))

	f, err = b.Build(root, domain.IgnoreOptions{NoIgnore: true, Hidden: true})
	require.NoError(t, err)
	assert.False(t, f.Ignore(filepath.Join(root, ".env"), false))
	assert.True(t, f.Ignore(filepath.Join(root, ".git"), true), ".git is always skipped")
	assert.True(t, f.Ignore(filepath.Join(root, "sub", ".jj"), true))
	assert.False(t, f.Ignore(filepath.Join(root, ".git"), false), "only directories named .git are skipped")

	f, err = b.Build(root, domain.IgnoreOptions{NoIgnore: true, Patterns: []string{"!.env"}})
	require.NoError(t, err)
	assert.False(t, f.Ignore(filepath.Join(root, ".env"), false), "whitelist beats the hidden default")
}

func TestBuilder_LoadsIgnoreFiles(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "project")
	require.NoError(t, os.Mkdir(root, 0o750))

	require.NoError(t, os.WriteFile(filepath.Join(parent, ".gitignore"), []byte("*.log\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ignore"), []byte("tmp/\n!important.log\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# build output\n/dist\n"), 0o600))

	b := ignore.NewBuilder()

	f, err := b.Build(root, domain.IgnoreOptions{})
	require.NoError(t, err)

	assert.True(t, f.Ignore(filepath.Join(root, "x.log"), false), "ancestor rules apply")
	assert.False(t, f.Ignore(filepath.Join(root, "important.log"), false), "root rules take precedence")
	assert.True(t, f.Ignore(filepath.Join(root, "a", "tmp"), true))
	assert.True(t, f.Ignore(filepath.Join(root, "dist"), true))
	assert.False(t, f.Ignore(filepath.Join(root, "a", "dist"), true))
	assert.False(t, f.Ignore(filepath.Join(root, "main.go"), false))

	f, err = b.Build(root, domain.IgnoreOptions{NoIgnore: true})
	require.NoError(t, err)
	assert.False(t, f.Ignore(filepath.Join(root, "x.log"), false))
}

func TestBuilder_InvalidPattern(t *testing.T) {
	b := ignore.NewBuilder()

	_, err := b.Build(t.TempDir(), domain.IgnoreOptions{NoIgnore: true, Patterns: []string{"[abc"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidIgnorePattern.Error())
}
