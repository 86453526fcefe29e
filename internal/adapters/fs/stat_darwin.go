package fs

import (
	"go.trai.ch/filesentry/internal/core/domain"
	"golang.org/x/sys/unix"
)

func metadata(st *unix.Stat_t) domain.Metadata {
	return domain.Metadata{
		Kind: kindOf(uint32(st.Mode)),
		ID: domain.Identity{
			Device: uint64(st.Dev), //nolint:gosec // device numbers are non-negative
			Inode:  st.Ino,
		},
		Sig: domain.Signature{
			Size:       st.Size,
			ModTime:    st.Mtim.Nano(),
			Generation: uint64(st.Gen),
		},
	}
}
