// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recs

// Blend merges an offline and an online recommendation list into a single
// deduplicated list of at most k tracks.
//
// The merge is positional, never score-based:
//
//  1. Interleave online[i], offline[i] for i < min(len(online), len(offline)),
//     online first at each position.
//  2. Append the offline remainder, then the online remainder.
//  3. Deduplicate keeping first occurrence.
//  4. Truncate to k.
//
// A track present in both lists keeps whichever position it first reached in
// the interleaved-then-remainder sequence. Empty inputs are fine: with no
// offline list the result is the online list deduplicated and truncated, and
// vice versa.
func Blend(offline, online []TrackID, k int) []TrackID {
	m := min(len(offline), len(online))

	merged := make([]TrackID, 0, len(offline)+len(online))
	for i := 0; i < m; i++ {
		merged = append(merged, online[i], offline[i])
	}
	merged = append(merged, offline[m:]...)
	merged = append(merged, online[m:]...)

	merged = DedupIDs(merged)

	if k >= 0 && len(merged) > k {
		merged = merged[:k]
	}
	return merged
}
