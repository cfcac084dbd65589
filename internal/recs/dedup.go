// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recs

// DedupIDs returns ids with duplicates removed, keeping only each id's first
// occurrence and preserving the relative order of first occurrences.
func DedupIDs(ids []TrackID) []TrackID {
	seen := make(map[TrackID]struct{}, len(ids))
	out := make([]TrackID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
