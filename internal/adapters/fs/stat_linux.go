package fs

import (
	"go.trai.ch/filesentry/internal/core/domain"
	"golang.org/x/sys/unix"
)

// metadata converts a stat buffer. Linux does not expose the inode
// generation through stat, so it stays zero.
func metadata(st *unix.Stat_t) domain.Metadata {
	return domain.Metadata{
		Kind: kindOf(st.Mode),
		ID: domain.Identity{
			Device: st.Dev,
			Inode:  st.Ino,
		},
		Sig: domain.Signature{
			Size:    st.Size,
			ModTime: st.Mtim.Nano(),
		},
	}
}
