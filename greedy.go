package bytetrack

// MatchDetectionsWithTracks reconciles detection boxes with the identities
// of existing tracks by nearest IoU.  For every track the single detection
// with the highest overlap takes that track's id; detections no track
// overlaps keep their incoming id.
//
// This is a greedy, non-exclusive pass: two tracks can claim the same
// detection, with the later track winning.  It is a convenience for
// re-labelling detector output and is not a substitute for the optimal
// assignment the tracker itself performs.
func MatchDetectionsWithTracks(boxes []Tlbr, trackIDs []int, tracks []Track) []int {

	if len(boxes) == 0 || len(tracks) == 0 {
		return trackIDs
	}

	rects := make([]Rect, len(boxes))
	for i, box := range boxes {
		rects[i] = GenerateRectByTlbr(box)
	}

	for _, track := range tracks {

		bestIdx := -1
		bestIoU := float32(0)

		for i := range rects {
			if iou := track.Rect.CalcIoU(rects[i]); iou > bestIoU {
				bestIoU = iou
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			trackIDs[bestIdx] = track.ID
		}
	}

	return trackIDs
}
