//go:build linux || darwin

// Package fs provides the stat, listing and walking adapters used by the engine.
package fs

import (
	"errors"
	"os"
	"slices"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

var _ ports.FileSystem = (*FileSystem)(nil)

// FileSystem implements ports.FileSystem with parent-relative fstatat calls.
type FileSystem struct{}

// NewFileSystem creates a new FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

// Stat looks up name inside dir without following a trailing symlink.
// The lookup goes through a descriptor of dir so that a rename of one of
// dir's ancestors between listing and stat-ing cannot redirect it.
func (f *FileSystem) Stat(dir, name string) (domain.Metadata, error) {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return domain.Metadata{}, statError(err, dir, name)
	}
	defer func() { _ = unix.Close(fd) }()

	var st unix.Stat_t
	for {
		err = unix.Fstatat(fd, name, &st, unix.AT_SYMLINK_NOFOLLOW)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		return domain.Metadata{}, statError(err, dir, name)
	}
	return metadata(&st), nil
}

// ReadDir returns the names in dir, sorted.
func (f *FileSystem) ReadDir(dir string) ([]string, error) {
	d, err := os.Open(dir) //nolint:gosec // dir comes from the watched tree
	if err != nil {
		return nil, readDirError(err, dir)
	}
	defer func() { _ = d.Close() }()

	names, err := d.Readdirnames(-1)
	if err != nil {
		return nil, readDirError(err, dir)
	}
	slices.Sort(names)
	return names, nil
}

func statError(err error, dir, name string) error {
	if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrVanished, "stat"), "dir", dir), "name", name)
	}
	return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrStatFailed.Error()), "dir", dir), "name", name)
}

func readDirError(err error, dir string) error {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, unix.ENOTDIR) {
		return zerr.With(zerr.Wrap(domain.ErrVanished, "list"), "dir", dir)
	}
	return zerr.With(zerr.Wrap(err, domain.ErrCrawlIO.Error()), "dir", dir)
}

func kindOf(mode uint32) domain.NodeKind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return domain.KindRegularFile
	case unix.S_IFDIR:
		return domain.KindDirectory
	default:
		return domain.KindOther
	}
}
