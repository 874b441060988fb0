package bytetrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchDetectionsWithTracks(t *testing.T) {

	boxes := []Tlbr{
		{100, 100, 200, 300},
		{500, 100, 600, 300},
	}
	ids := []int{0, 1}

	tracks := []Track{
		{ID: 7, Rect: NewRect(498, 101, 100, 200), Score: 0.9},
		{ID: 9, Rect: NewRect(102, 99, 100, 200), Score: 0.9},
	}

	got := MatchDetectionsWithTracks(boxes, ids, tracks)

	assert.Equal(t, []int{9, 7}, got,
		"each detection should take the id of its best overlapping track")
}

func TestMatchDetectionsWithTracksNoOverlap(t *testing.T) {

	boxes := []Tlbr{{100, 100, 200, 300}}
	ids := []int{42}

	tracks := []Track{
		{ID: 7, Rect: NewRect(900, 900, 50, 50), Score: 0.9},
	}

	got := MatchDetectionsWithTracks(boxes, ids, tracks)

	assert.Equal(t, []int{42}, got, "detections no track overlaps keep their id")
}

func TestMatchDetectionsWithTracksLaterTrackWins(t *testing.T) {

	boxes := []Tlbr{{100, 100, 200, 300}}
	ids := []int{0}

	// both tracks overlap the single detection; the pass is non-exclusive so
	// the later track's claim stands
	tracks := []Track{
		{ID: 7, Rect: NewRect(100, 100, 100, 200), Score: 0.9},
		{ID: 9, Rect: NewRect(101, 101, 100, 200), Score: 0.9},
	}

	got := MatchDetectionsWithTracks(boxes, ids, tracks)

	assert.Equal(t, []int{9}, got)
}

func TestMatchDetectionsWithTracksEmpty(t *testing.T) {

	ids := []int{1, 2}

	assert.Equal(t, ids, MatchDetectionsWithTracks(nil, ids, []Track{{ID: 3}}))
	assert.Nil(t, MatchDetectionsWithTracks([]Tlbr{{0, 0, 1, 1}}, nil, nil))
}
