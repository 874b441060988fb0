package bytetrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailAdd(t *testing.T) {

	trail := NewTrail(16)

	trail.Add(Track{ID: 1, Rect: NewRect(100, 100, 100, 200)})
	trail.Add(Track{ID: 1, Rect: NewRect(110, 105, 100, 200)})

	points := trail.GetPoints(1)

	assert.Equal(t, []Point{{X: 150, Y: 200}, {X: 160, Y: 205}}, points)
}

func TestTrailSizeBound(t *testing.T) {

	trail := NewTrail(2)

	trail.Add(Track{ID: 1, Rect: NewRect(0, 0, 10, 10)})
	trail.Add(Track{ID: 1, Rect: NewRect(10, 0, 10, 10)})
	trail.Add(Track{ID: 1, Rect: NewRect(20, 0, 10, 10)})

	points := trail.GetPoints(1)

	// oldest point dropped once the bound is exceeded
	assert.Equal(t, []Point{{X: 15, Y: 5}, {X: 25, Y: 5}}, points)
}

func TestTrailReset(t *testing.T) {

	trail := NewTrail(4)

	trail.Add(Track{ID: 1, Rect: NewRect(0, 0, 10, 10)})
	trail.Add(Track{ID: 2, Rect: NewRect(50, 50, 10, 10)})

	trail.Reset()

	assert.Nil(t, trail.GetPoints(1))
	assert.Nil(t, trail.GetPoints(2))
}

func TestTrailUnknownID(t *testing.T) {

	trail := NewTrail(4)

	assert.Nil(t, trail.GetPoints(99))
}
