// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package similarity

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/melodex/internal/recs"
)

func testNeighborTable() map[recs.TrackID][]recs.ScoredTrack {
	// Each list leads with the query track itself, as exported by the
	// nearest-neighbor model.
	return map[recs.TrackID][]recs.ScoredTrack{
		10: {
			{ID: 10, Score: 1.0},
			{ID: 20, Score: 0.9},
			{ID: 21, Score: 0.5},
		},
		11: {
			{ID: 22, Score: 0.7},
		},
	}
}

func TestStaticProviderSimilar(t *testing.T) {
	tests := []struct {
		name    string
		trackID recs.TrackID
		n       int
		want    []recs.ScoredTrack
		wantErr error
	}{
		{
			name:    "drops leading self entry",
			trackID: 10,
			n:       10,
			want:    []recs.ScoredTrack{{ID: 20, Score: 0.9}, {ID: 21, Score: 0.5}},
		},
		{
			name:    "n bounds result",
			trackID: 10,
			n:       1,
			want:    []recs.ScoredTrack{{ID: 20, Score: 0.9}},
		},
		{
			name:    "list without self entry passes through",
			trackID: 11,
			n:       10,
			want:    []recs.ScoredTrack{{ID: 22, Score: 0.7}},
		},
		{
			name:    "unknown track",
			trackID: 99,
			n:       10,
			wantErr: ErrUnknownTrack,
		},
		{
			name:    "n zero",
			trackID: 10,
			n:       0,
			want:    []recs.ScoredTrack{},
		},
		{
			name:    "negative n",
			trackID: 10,
			n:       -1,
			want:    []recs.ScoredTrack{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewStaticProvider(testNeighborTable())

			got, err := p.Similar(context.Background(), tt.trackID, tt.n)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Similar error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Similar returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Similar(%d, %d) = %v, want %v", tt.trackID, tt.n, got, tt.want)
			}
		})
	}
}

func TestStaticProviderCanceledContext(t *testing.T) {
	p := NewStaticProvider(testNeighborTable())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Similar(ctx, 10, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("Similar with canceled context error = %v, want context.Canceled", err)
	}
}

func TestStaticProviderReplace(t *testing.T) {
	p := NewStaticProvider(testNeighborTable())
	p.Replace(map[recs.TrackID][]recs.ScoredTrack{
		50: {{ID: 51, Score: 0.4}},
	})

	if _, err := p.Similar(context.Background(), 10, 5); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("old table still visible after Replace, err = %v", err)
	}

	got, err := p.Similar(context.Background(), 50, 5)
	if err != nil {
		t.Fatalf("Similar after Replace returned error: %v", err)
	}
	want := []recs.ScoredTrack{{ID: 51, Score: 0.4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Similar after Replace = %v, want %v", got, want)
	}
}

func TestStaticProviderNilTable(t *testing.T) {
	p := NewStaticProvider(nil)

	if _, err := p.Similar(context.Background(), 1, 5); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("Similar over nil table error = %v, want ErrUnknownTrack", err)
	}
}
