package tasks

import (
	"errors"

	"github.com/lysyi3m/podcast-annex/app/feed"
)

var (
	ErrCooldown    = errors.New("fetched within cooldown")
	ErrFetch       = errors.New("couldn't download feed")
	ErrRewrite     = errors.New("failed to update links")
	ErrCycleLocked = errors.New("another sync cycle holds the archive lock")
)

// IsSkip reports whether err only postpones a podcast to a later cycle,
// as opposed to a hard failure of this cycle.
func IsSkip(err error) bool {
	return errors.Is(err, ErrCooldown) ||
		errors.Is(err, ErrFetch) ||
		errors.Is(err, feed.ErrNoEntries)
}
