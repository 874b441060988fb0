package bytetrack

import (
	"fmt"
)

// assignEpsilon is added to the clip sentinel so the solver can never profit
// from pairing elements whose true cost exceeds the acceptance threshold.
const assignEpsilon = 1e-4

// calcIous calculates the Intersection over Union (IoU) between two sets of
// rectangles.  Either set being empty yields a nil matrix, never an error.
func calcIous(aRects, bRects []Rect) [][]float32 {

	if len(aRects)*len(bRects) == 0 {
		return nil
	}

	ious := make([][]float32, len(aRects))

	for ai := range aRects {
		ious[ai] = make([]float32, len(bRects))

		for bi := range bRects {
			ious[ai][bi] = aRects[ai].CalcIoU(bRects[bi])
		}
	}

	return ious
}

// rectsOf extracts the current rectangle of each track.  Conversion happens
// here at the call boundary so the cost functions only ever see rectangles.
func rectsOf(tracks []*STrack) []Rect {

	rects := make([]Rect, len(tracks))
	for i, track := range tracks {
		rects[i] = *track.GetRect()
	}

	return rects
}

// calcIouDistance calculates the IoU distance (1 - IoU) between two sets of
// tracks
func calcIouDistance(aTracks, bTracks []*STrack) [][]float32 {
	return calcRectDistance(rectsOf(aTracks), rectsOf(bTracks))
}

// calcRectDistance calculates the IoU distance (1 - IoU) between two sets of
// rectangles.  Costs are in [0, 1], higher is worse.
func calcRectDistance(aRects, bRects []Rect) [][]float32 {

	ious := calcIous(aRects, bRects)

	costMatrix := make([][]float32, len(ious))

	for i, iouRow := range ious {
		row := make([]float32, len(iouRow))

		for j, iou := range iouRow {
			row[j] = 1 - iou
		}

		costMatrix[i] = row
	}

	return costMatrix
}

// linearAssignment solves the rectangular minimum cost assignment problem
// over the given cost matrix.  Entries above thresh are clipped to a sentinel
// before solving, and only pairs whose original cost is within thresh are
// returned as matches.  Unmatched indices on both sides come back in
// ascending order.  Empty inputs short circuit without invoking the solver.
func linearAssignment(cost [][]float32, nRows, nCols int,
	thresh float32) (matchesIdx [][2]int, unmatchedA, unmatchedB []int,
	err error) {

	if nRows == 0 || nCols == 0 || len(cost) == 0 {
		for i := 0; i < nRows; i++ {
			unmatchedA = append(unmatchedA, i)
		}
		for j := 0; j < nCols; j++ {
			unmatchedB = append(unmatchedB, j)
		}
		return
	}

	// square the problem by zero padding up to max(nRows, nCols).  Every
	// padded cell costs the same, so the optimum over the real cells is
	// unchanged.
	n := max(nRows, nCols)

	padded := make([][]float64, n)
	for i := range padded {
		padded[i] = make([]float64, n)
	}

	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			c := cost[i][j]
			if c > thresh {
				c = thresh + assignEpsilon
			}
			padded[i][j] = float64(c)
		}
	}

	rowSol := make([]int, n)
	colSol := make([]int, n)

	if err = lapjv(n, padded, rowSol, colSol); err != nil {
		return nil, nil, nil, fmt.Errorf("lapjv solver failed: %w", err)
	}

	matchedA := make([]bool, nRows)
	matchedB := make([]bool, nCols)

	for i := 0; i < nRows; i++ {
		j := rowSol[i]

		if j >= 0 && j < nCols && cost[i][j] <= thresh {
			matchesIdx = append(matchesIdx, [2]int{i, j})
			matchedA[i] = true
			matchedB[j] = true
		}
	}

	for i := 0; i < nRows; i++ {
		if !matchedA[i] {
			unmatchedA = append(unmatchedA, i)
		}
	}
	for j := 0; j < nCols; j++ {
		if !matchedB[j] {
			unmatchedB = append(unmatchedB, j)
		}
	}

	return
}
