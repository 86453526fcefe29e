package aggregator

import "go.trai.ch/filesentry/internal/core/domain"

// Merge folds an incoming event into the pending one for the same path.
// It returns false when the two cancel out and the path must be forgotten.
//
//	current   incoming  result
//	-         X         X
//	Created   Created   Created
//	Created   Modified  Created
//	Created   Deleted   (cancelled)
//	Modified  Created   Modified
//	Modified  Modified  Modified
//	Modified  Deleted   Deleted
//	Deleted   Created   Modified
//	Deleted   Modified  Modified
//	Deleted   Deleted   Deleted
func Merge(current, incoming domain.EventKind) (domain.EventKind, bool) {
	switch current {
	case domain.EventNone:
		return incoming, incoming != domain.EventNone
	case domain.EventCreated:
		if incoming == domain.EventDeleted {
			return domain.EventNone, false
		}
		return domain.EventCreated, true
	case domain.EventModified:
		if incoming == domain.EventDeleted {
			return domain.EventDeleted, true
		}
		return domain.EventModified, true
	case domain.EventDeleted:
		if incoming == domain.EventDeleted {
			return domain.EventDeleted, true
		}
		return domain.EventModified, true
	default:
		return incoming, true
	}
}
