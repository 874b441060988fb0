package bytetrack

import "sync"

// Point represents the x,y center coordinates of a tracked bounding box
type Point struct {
	X, Y int
}

// Trail keeps a bounded history of track center points keyed by track id,
// for callers that draw motion trails over video frames
type Trail struct {
	// size is the maximum number of most recent points kept per track
	size int
	// history of tracked center points
	history map[int][]Point
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size is the maximum length
// of trail maintained per track.
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int][]Point),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int][]Point)
}

// Add appends the track's current box center to its history, dropping the
// oldest point once the size limit is exceeded
func (t *Trail) Add(track Track) {
	t.Lock()
	defer t.Unlock()

	x := track.Rect.TLX() + track.Rect.Width()/2
	y := track.Rect.TLY() + track.Rect.Height()/2

	points := append(t.history[track.ID], Point{X: int(x), Y: int(y)})

	if len(points) > t.size {
		points = points[1:]
	}

	t.history[track.ID] = points
}

// GetPoints gets the point history for a specific track id
func (t *Trail) GetPoints(id int) []Point {
	t.Lock()
	defer t.Unlock()

	return t.history[id]
}
