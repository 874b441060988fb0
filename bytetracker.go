package bytetrack

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// scores at or below this are discarded as detector noise
	noiseThresh = 0.1
	// matching threshold for the low confidence recovery stage
	secondMatchThresh = 0.5
	// matching threshold for confirming tentative tracks
	unconfirmedMatchThresh = 0.7
	// tracked/lost pairs with IoU distance below this are duplicates of
	// the same physical object
	duplicateThresh = 0.15
	// margin added to trackThresh to gate new track creation
	detThreshOffset = 0.1
)

// Track is a read-only snapshot of a confirmed track as returned by Update
type Track struct {
	// ID is the persistent identity of the track
	ID int
	// Rect is the current bounding box estimate in original frame
	// coordinates
	Rect Rect
	// Score is the last associated detection confidence
	Score float32
}

// BYTETracker associates per-frame object detections into persistent
// identity tracks using the BYTE multi-stage association strategy.  An
// instance is single threaded; callers running multiple video streams should
// use one instance per stream.
type BYTETracker struct {
	// Threshold splitting detections into high and low confidence bands
	trackThresh float32
	// Threshold a leftover detection must clear to seed a new track
	detThresh float32
	// Matching threshold for the primary association stage
	matchThresh float32
	// Maximum number of frames a lost track is retained
	maxTimeLost int
	// Current frame ID
	frameID int
	// Counter for assigning unique track IDs
	trackIDCount int
	// Motion model handed to tracks at activation
	predictor Predictor
	// List of currently tracked objects, tentative ones included
	trackedStracks []*STrack
	// List of lost objects eligible for re-acquisition
	lostStracks []*STrack
	// List of permanently retired objects
	removedStracks []*STrack
}

// NewBYTETracker initializes and returns a new BYTETracker.  trackThresh
// splits detections into confidence bands, trackBuffer scales how long a
// lost track is retained, matchThresh bounds the primary association cost
// and frameRate adjusts the buffer for non 30fps input.
func NewBYTETracker(trackThresh float32, trackBuffer int, matchThresh float32,
	frameRate int) *BYTETracker {

	return &BYTETracker{
		trackThresh: trackThresh,
		detThresh:   trackThresh + detThreshOffset,
		matchThresh: matchThresh,
		maxTimeLost: int(math.Round(float64(frameRate) / 30.0 * float64(trackBuffer))),
		predictor:   NewKalmanFilter(1.0/20, 1.0/160),
	}
}

// UsePredictor replaces the default Kalman filter with a custom motion
// model.  Call it before the first Update; tracks keep the predictor they
// were activated with.
func (bt *BYTETracker) UsePredictor(p Predictor) {
	bt.predictor = p
}

// Reset clears the tracked data and resets all counters
func (bt *BYTETracker) Reset() {
	bt.frameID = 0
	bt.trackIDCount = 0
	bt.trackedStracks = nil
	bt.lostStracks = nil
	bt.removedStracks = nil
}

// RemovedTracks returns snapshots of every track retired so far.  The list
// grows for the lifetime of the engine unless PruneRemoved is called.
func (bt *BYTETracker) RemovedTracks() []Track {

	tracks := make([]Track, 0, len(bt.removedStracks))

	for _, track := range bt.removedStracks {
		tracks = append(tracks, track.snapshot())
	}

	return tracks
}

// PruneRemoved drops the retired track bookkeeping
func (bt *BYTETracker) PruneRemoved() {
	bt.removedStracks = nil
}

// Update runs one frame of the tracker over raw detector output and returns
// the currently visible confirmed tracks.
//
// output rows are either (x1, y1, x2, y2, score) or
// (x1, y1, x2, y2, objScore, clsScore), with coordinates at the detector's
// working resolution; nil means no detections this frame.  frameSize is the
// original frame and inputSize the detector resolution, used only to rescale
// boxes back to frame coordinates.  A malformed column count returns an
// error before any tracker state is touched.
func (bt *BYTETracker) Update(output *mat.Dense, frameSize,
	inputSize Size) ([]Track, error) {

	dets, err := parseDetections(output)
	if err != nil {
		return nil, err
	}

	scaleDetections(dets, frameSize, inputSize)

	bt.frameID++

	// split detections into high and low confidence bands
	var detStracks, detLowStracks []*STrack

	for _, det := range dets {
		switch {
		case det.score > bt.trackThresh:
			detStracks = append(detStracks,
				NewSTrack(GenerateRectByTlbr(det.box), det.score))
		case det.score > noiseThresh:
			detLowStracks = append(detLowStracks,
				NewSTrack(GenerateRectByTlbr(det.box), det.score))
		}
	}

	// partition current tracks into confirmed and tentative
	var activeStracks, nonActiveStracks []*STrack

	for _, track := range bt.trackedStracks {
		if track.IsActivated() {
			activeStracks = append(activeStracks, track)
		} else {
			nonActiveStracks = append(nonActiveStracks, track)
		}
	}

	// pool confirmed and lost tracks and advance them one frame
	strackPool := jointStracks(activeStracks, bt.lostStracks)
	multiPredict(bt.predictor, strackPool)

	var activatedStracks, refindStracks []*STrack
	var currentLostStracks, currentRemovedStracks []*STrack

	// Stage 1: primary association with high confidence detections
	matchesIdx, unmatchTrackIdx, unmatchDetectionIdx, err := linearAssignment(
		calcIouDistance(strackPool, detStracks),
		len(strackPool), len(detStracks), bt.matchThresh,
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment, stage 1: %w", err)
	}

	for _, matchIdx := range matchesIdx {

		track := strackPool[matchIdx[0]]
		det := detStracks[matchIdx[1]]

		if track.GetSTrackState() == Tracked {
			if err := track.Update(det, bt.frameID); err != nil {
				return nil, fmt.Errorf("error updating track, stage 1: %w", err)
			}
			activatedStracks = append(activatedStracks, track)
		} else {
			if err := track.ReActivate(det, bt.frameID, -1); err != nil {
				return nil, fmt.Errorf("error re-activating track, stage 1: %w", err)
			}
			refindStracks = append(refindStracks, track)
		}
	}

	var remainDetStracks []*STrack
	for _, unmatchIdx := range unmatchDetectionIdx {
		remainDetStracks = append(remainDetStracks, detStracks[unmatchIdx])
	}

	var remainTrackedStracks []*STrack
	for _, unmatchIdx := range unmatchTrackIdx {
		if strackPool[unmatchIdx].GetSTrackState() == Tracked {
			remainTrackedStracks = append(remainTrackedStracks, strackPool[unmatchIdx])
		}
	}

	// Stage 2: recovery association with low confidence detections
	matchesIdx, unmatchTrackIdx, _, err = linearAssignment(
		calcIouDistance(remainTrackedStracks, detLowStracks),
		len(remainTrackedStracks), len(detLowStracks), secondMatchThresh,
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment, stage 2: %w", err)
	}

	for _, matchIdx := range matchesIdx {

		track := remainTrackedStracks[matchIdx[0]]
		det := detLowStracks[matchIdx[1]]

		if track.GetSTrackState() == Tracked {
			if err := track.Update(det, bt.frameID); err != nil {
				return nil, fmt.Errorf("error updating track, stage 2: %w", err)
			}
			activatedStracks = append(activatedStracks, track)
		} else {
			if err := track.ReActivate(det, bt.frameID, -1); err != nil {
				return nil, fmt.Errorf("error re-activating track, stage 2: %w", err)
			}
			refindStracks = append(refindStracks, track)
		}
	}

	for _, unmatchIdx := range unmatchTrackIdx {
		track := remainTrackedStracks[unmatchIdx]
		if track.GetSTrackState() != Lost {
			track.MarkAsLost()
			currentLostStracks = append(currentLostStracks, track)
		}
	}

	// Stage 3: confirm tentative tracks against leftover high confidence
	// detections
	matchesIdx, unmatchUnconfirmedIdx, unmatchDetectionIdx, err := linearAssignment(
		calcIouDistance(nonActiveStracks, remainDetStracks),
		len(nonActiveStracks), len(remainDetStracks), unconfirmedMatchThresh,
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment, stage 3: %w", err)
	}

	for _, matchIdx := range matchesIdx {
		track := nonActiveStracks[matchIdx[0]]
		if err := track.Update(remainDetStracks[matchIdx[1]], bt.frameID); err != nil {
			return nil, fmt.Errorf("error updating track, stage 3: %w", err)
		}
		activatedStracks = append(activatedStracks, track)
	}

	// a tentative track that failed to re-match is discarded, not kept
	// as lost
	for _, unmatchIdx := range unmatchUnconfirmedIdx {
		track := nonActiveStracks[unmatchIdx]
		track.MarkAsRemoved()
		currentRemovedStracks = append(currentRemovedStracks, track)
	}

	// promote leftover high confidence detections into new tracks
	for _, unmatchIdx := range unmatchDetectionIdx {

		track := remainDetStracks[unmatchIdx]

		if track.GetScore() < bt.detThresh {
			continue
		}

		bt.trackIDCount++
		track.Activate(bt.predictor, bt.frameID, bt.trackIDCount)
		activatedStracks = append(activatedStracks, track)
	}

	// retire lost tracks that outlived the buffer window
	for _, lostStrack := range bt.lostStracks {
		if bt.frameID-lostStrack.GetFrameID() > bt.maxTimeLost {
			lostStrack.MarkAsRemoved()
			currentRemovedStracks = append(currentRemovedStracks, lostStrack)
		}
	}

	// rebuild the collections.  Removed entries are accumulated before the
	// lost list is re-derived so an expired track can never linger in the
	// pool.
	bt.removedStracks = append(bt.removedStracks, currentRemovedStracks...)

	var stillTracked []*STrack
	for _, track := range bt.trackedStracks {
		if track.GetSTrackState() == Tracked {
			stillTracked = append(stillTracked, track)
		}
	}

	tracked := jointStracks(stillTracked, activatedStracks)
	tracked = jointStracks(tracked, refindStracks)
	bt.trackedStracks = tracked

	lost := subStracks(bt.lostStracks, bt.trackedStracks)
	lost = append(lost, currentLostStracks...)
	bt.lostStracks = subStracks(lost, bt.removedStracks)

	bt.trackedStracks, bt.lostStracks =
		removeDuplicateStracks(bt.trackedStracks, bt.lostStracks)

	outputTracks := make([]Track, 0, len(bt.trackedStracks))

	for _, track := range bt.trackedStracks {
		if track.IsActivated() {
			outputTracks = append(outputTracks, track.snapshot())
		}
	}

	return outputTracks, nil
}

// jointStracks combines two lists of tracks into an ordered union by id.  A
// duplicate id keeps its first position but takes the later value, matching
// an insertion ordered map.
func jointStracks(aTlist, bTlist []*STrack) []*STrack {

	pos := make(map[int]int, len(aTlist)+len(bTlist))
	res := make([]*STrack, 0, len(aTlist)+len(bTlist))

	for _, list := range [][]*STrack{aTlist, bTlist} {
		for _, track := range list {

			if at, exists := pos[track.GetTrackID()]; exists {
				res[at] = track
				continue
			}

			pos[track.GetTrackID()] = len(res)
			res = append(res, track)
		}
	}

	return res
}

// subStracks removes from aTlist every track whose id appears in bTlist,
// preserving order
func subStracks(aTlist, bTlist []*STrack) []*STrack {

	drop := make(map[int]struct{}, len(bTlist))

	for _, track := range bTlist {
		drop[track.GetTrackID()] = struct{}{}
	}

	res := make([]*STrack, 0, len(aTlist))

	for _, track := range aTlist {
		if _, exists := drop[track.GetTrackID()]; !exists {
			res = append(res, track)
		}
	}

	return res
}

// removeDuplicateStracks drops the younger of any tracked/lost pair whose
// boxes overlap closely enough to be the same physical object.  Age is
// frameID - startFrameID; on a tie the tracked side entry is dropped.
func removeDuplicateStracks(aStracks, bStracks []*STrack) ([]*STrack, []*STrack) {

	dists := calcIouDistance(aStracks, bStracks)

	aDup := make([]bool, len(aStracks))
	bDup := make([]bool, len(bStracks))

	for i := range dists {
		for j := range dists[i] {

			if dists[i][j] >= duplicateThresh {
				continue
			}

			ageA := aStracks[i].GetFrameID() - aStracks[i].GetStartFrameID()
			ageB := bStracks[j].GetFrameID() - bStracks[j].GetStartFrameID()

			if ageA > ageB {
				bDup[j] = true
			} else {
				aDup[i] = true
			}
		}
	}

	aRes := make([]*STrack, 0, len(aStracks))
	for i, track := range aStracks {
		if !aDup[i] {
			aRes = append(aRes, track)
		}
	}

	bRes := make([]*STrack, 0, len(bStracks))
	for j, track := range bStracks {
		if !bDup[j] {
			bRes = append(bRes, track)
		}
	}

	return aRes, bRes
}
