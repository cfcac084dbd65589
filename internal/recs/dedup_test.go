// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recs

import (
	"reflect"
	"testing"
)

func TestDedupIDs(t *testing.T) {
	tests := []struct {
		name string
		in   []TrackID
		want []TrackID
	}{
		{
			name: "empty",
			in:   []TrackID{},
			want: []TrackID{},
		},
		{
			name: "no duplicates",
			in:   []TrackID{1, 2, 3},
			want: []TrackID{1, 2, 3},
		},
		{
			name: "keeps first occurrence",
			in:   []TrackID{5, 3, 5, 1, 3, 5},
			want: []TrackID{5, 3, 1},
		},
		{
			name: "all identical",
			in:   []TrackID{7, 7, 7},
			want: []TrackID{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupIDs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DedupIDs(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDedupIDsIdempotent(t *testing.T) {
	in := []TrackID{4, 2, 4, 9, 2, 4, 1}

	once := DedupIDs(in)
	twice := DedupIDs(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("DedupIDs not idempotent: first %v, second %v", once, twice)
	}
}

func TestDedupIDsDoesNotMutateInput(t *testing.T) {
	in := []TrackID{1, 1, 2}
	want := []TrackID{1, 1, 2}

	DedupIDs(in)

	if !reflect.DeepEqual(in, want) {
		t.Errorf("input mutated: %v", in)
	}
}
