package bytetrack

import (
	"fmt"
)

// STrackState represents the lifecycle state of a track
type STrackState int

const (
	// New is a track constructed from a detection but not yet registered
	New STrackState = iota
	// Tracked is a registered track currently believed visible
	Tracked
	// Lost is a track unmatched this frame, still within the buffer window
	Lost
	// Removed is a permanently retired track; the state is terminal
	Removed
)

// String returns the state name
func (s STrackState) String() string {
	switch s {
	case New:
		return "New"
	case Tracked:
		return "Tracked"
	case Lost:
		return "Lost"
	case Removed:
		return "Removed"
	}
	return fmt.Sprintf("STrackState(%d)", int(s))
}

// STrack is the mutable per-object record of one identity hypothesis.  It is
// created in state New from a detection; all further transitions are driven
// by the tracking engine through the lifecycle operations below.
type STrack struct {
	// predictor is the motion model handed over at activation
	predictor Predictor
	// motion is the current mean/covariance estimate
	motion *MotionState
	// rect is the current bounding box estimate
	rect Rect
	// state is the current lifecycle state
	state STrackState
	// isActivated is true once the track survived a confirmation cycle
	isActivated bool
	// score is the last associated detection confidence
	score float32
	// trackID is the engine assigned identity, immutable once set
	trackID int
	// frameID is the frame of the last successful update
	frameID int
	// startFrameID is the frame the track was created on
	startFrameID int
	// trackletLen counts consecutive successful updates
	trackletLen int
}

// NewSTrack creates a track in state New from a detection box and confidence
// score
func NewSTrack(rect Rect, score float32) *STrack {
	return &STrack{
		rect:  rect,
		state: New,
		score: score,
	}
}

// GetRect returns the current bounding box estimate
func (s *STrack) GetRect() *Rect {
	return &s.rect
}

// GetSTrackState returns the current lifecycle state
func (s *STrack) GetSTrackState() STrackState {
	return s.state
}

// IsActivated returns whether the track has been confirmed
func (s *STrack) IsActivated() bool {
	return s.isActivated
}

// GetScore returns the last associated detection confidence
func (s *STrack) GetScore() float32 {
	return s.score
}

// GetTrackID returns the unique ID for the track
func (s *STrack) GetTrackID() int {
	return s.trackID
}

// GetFrameID returns the frame of the last successful update
func (s *STrack) GetFrameID() int {
	return s.frameID
}

// GetStartFrameID returns the frame the track was created on
func (s *STrack) GetStartFrameID() int {
	return s.startFrameID
}

// GetTrackletLength returns the number of consecutive successful updates
func (s *STrack) GetTrackletLength() int {
	return s.trackletLen
}

// mustBeIn panics unless the track is in one of the given states.  Calling a
// lifecycle operation from an incompatible state is a programming error in
// the cascade, not a recoverable condition.
func (s *STrack) mustBeIn(op string, states ...STrackState) {
	for _, st := range states {
		if s.state == st {
			return
		}
	}
	panic(fmt.Sprintf("bytetrack: %s called on track %d in state %s",
		op, s.trackID, s.state))
}

// Activate registers the track with the engine: the motion estimate is
// seeded from the detection box and the given identity is assigned.  Tracks
// born on frame 1 are confirmed immediately since there is no earlier frame
// to confirm against.
func (s *STrack) Activate(p Predictor, frameID, trackID int) {

	s.mustBeIn("Activate", New)

	s.predictor = p
	s.motion = NewMotionState()
	s.predictor.Initiate(s.motion, s.rect.GetXyah())

	s.updateRect()

	s.state = Tracked

	if frameID == 1 {
		s.isActivated = true
	}

	s.trackID = trackID
	s.frameID = frameID
	s.startFrameID = frameID
	s.trackletLen = 0
}

// ReActivate revives a lost track with a matched detection.  The track keeps
// its identity unless newTrackID is non negative.
func (s *STrack) ReActivate(det *STrack, frameID, newTrackID int) error {

	s.mustBeIn("ReActivate", Lost)

	if err := s.predictor.Update(s.motion, det.GetRect().GetXyah()); err != nil {
		return fmt.Errorf("error re-activating: %w", err)
	}

	s.updateRect()

	s.state = Tracked
	s.isActivated = true
	s.score = det.GetScore()

	if newTrackID >= 0 {
		s.trackID = newTrackID
	}

	s.frameID = frameID
	s.trackletLen = 0

	return nil
}

// Update folds a matched detection into the track state
func (s *STrack) Update(det *STrack, frameID int) error {

	s.mustBeIn("Update", Tracked)

	if err := s.predictor.Update(s.motion, det.GetRect().GetXyah()); err != nil {
		return fmt.Errorf("error updating: %w", err)
	}

	s.updateRect()

	s.state = Tracked
	s.isActivated = true
	s.score = det.GetScore()
	s.frameID = frameID
	s.trackletLen++

	return nil
}

// Predict advances the motion estimate one frame.  Tracks not currently in
// state Tracked have their height velocity zeroed first.
func (s *STrack) Predict() {

	if s.state != Tracked {
		s.motion.Mean[7] = 0
	}

	s.predictor.Predict(s.motion)
	s.updateRect()
}

// MarkAsLost marks the track as lost
func (s *STrack) MarkAsLost() {
	s.mustBeIn("MarkAsLost", Tracked)
	s.state = Lost
}

// MarkAsRemoved retires the track permanently
func (s *STrack) MarkAsRemoved() {
	s.mustBeIn("MarkAsRemoved", Tracked, Lost)
	s.state = Removed
}

// multiPredict advances a pool of tracks in a single predictor call
func multiPredict(p Predictor, tracks []*STrack) {

	if len(tracks) == 0 {
		return
	}

	states := make([]*MotionState, len(tracks))

	for i, track := range tracks {
		if track.state != Tracked {
			track.motion.Mean[7] = 0
		}
		states[i] = track.motion
	}

	p.BatchPredict(states)

	for _, track := range tracks {
		track.updateRect()
	}
}

// updateRect rewrites the bounding box from the motion state mean
func (s *STrack) updateRect() {
	width := s.motion.Mean[2] * s.motion.Mean[3]
	height := s.motion.Mean[3]
	s.rect = NewRect(s.motion.Mean[0]-width/2, s.motion.Mean[1]-height/2,
		width, height)
}

// snapshot returns an immutable copy of the track for callers
func (s *STrack) snapshot() Track {
	return Track{
		ID:    s.trackID,
		Rect:  NewRect(s.rect.X(), s.rect.Y(), s.rect.Width(), s.rect.Height()),
		Score: s.score,
	}
}
