package tasks

import (
	"slices"

	"github.com/lysyi3m/podcast-annex/app/feed"
)

type Action string

const (
	ActionNone    Action = "none"
	ActionAnomaly Action = "anomaly"
	ActionArchive Action = "archive"
)

type Decision struct {
	Action  Action
	New     []string // Remote ids not archived yet, in feed order
	Missing []string // Archived ids the remote feed no longer lists
}

// Reconcile compares the remote entry ids with the ids present in the
// archive. Archived episodes vanishing from the feed block archiving even
// when new episodes appeared.
func Reconcile(remote []string, present map[string]bool) Decision {
	inRemote := make(map[string]bool, len(remote))
	var decision Decision

	for _, id := range remote {
		if inRemote[id] {
			continue
		}
		inRemote[id] = true
		if !present[id] {
			decision.New = append(decision.New, id)
		}
	}

	for id := range present {
		if !inRemote[id] {
			decision.Missing = append(decision.Missing, id)
		}
	}
	slices.Sort(decision.Missing)

	switch {
	case len(decision.Missing) > 0:
		decision.Action = ActionAnomaly
	case len(decision.New) > 0:
		decision.Action = ActionArchive
	default:
		decision.Action = ActionNone
	}

	return decision
}

// PresentEpisodes returns the known episode ids that have an archived
// file, matched through the sanitized filename the archiver produced.
func PresentEpisodes(known []string, stems map[string]bool) map[string]bool {
	present := make(map[string]bool, len(known))
	for _, id := range known {
		if stems[feed.SanitizeFilename(id)] {
			present[id] = true
		}
	}
	return present
}
