// Package matching implements the Matcher: given a candidate's interests
// and the current Waiting Pool, it selects the best partner or reports that
// none qualifies.
package matching

import "github.com/driftline/signalcore/internal/pool"

const randomTag = "random"

// FindBestMatch scans entries for the best partner for a client declaring
// candidateInterests, excluding excludeID (the candidate's own entry, if
// present in the pool). It implements spec.md §4.3: an entry qualifies if it
// shares at least one interest with the candidate, or if both the candidate
// and the entry declared the random sentinel. Among qualifying entries the
// one with the most shared interests wins; ties are broken by earliest
// JoinedAtNanos (FIFO); ties on both criteria keep whichever entry was
// encountered first in pool iteration order.
func FindBestMatch(candidateInterests []string, excludeID string, entries []pool.Entry) (pool.Entry, bool) {
	candidateRandom := contains(candidateInterests, randomTag)

	var best pool.Entry
	bestCommon := -1
	found := false

	for _, e := range entries {
		if e.ClientID == excludeID {
			continue
		}

		common := commonCount(candidateInterests, e.Interests)
		bothRandom := candidateRandom && contains(e.Interests, randomTag)
		if common == 0 && !bothRandom {
			continue
		}

		switch {
		case !found:
			best, bestCommon, found = e, common, true
		case common > bestCommon:
			best, bestCommon = e, common
		case common == bestCommon && e.JoinedAtNanos < best.JoinedAtNanos:
			best = e
		}
	}

	return best, found
}

// commonCount returns the number of distinct tags present in both a and b.
func commonCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}

	seen := make(map[string]struct{}, len(b))
	n := 0
	for _, t := range b {
		if _, ok := seen[t]; ok {
			continue
		}
		if _, ok := set[t]; ok {
			n++
		}
		seen[t] = struct{}{}
	}
	return n
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
