package bytetrack

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidShape reports a detection matrix whose column count matches
// neither supported detector schema
var ErrInvalidShape = errors.New("detection matrix must have 5 or 6 columns")

// Size holds the height and width of an image in pixels
type Size struct {
	Height int
	Width  int
}

// Detection is a single detector output record.  Box coordinates are in
// corner (Tlbr) form at the detector's working resolution.
type Detection struct {
	Box   Tlbr
	Score float32
}

// DetectionsMatrix packs detection records into the matrix form consumed by
// Update.  An empty slice yields nil, which Update treats as a frame with no
// detections.
func DetectionsMatrix(dets []Detection) *mat.Dense {

	if len(dets) == 0 {
		return nil
	}

	m := mat.NewDense(len(dets), 5, nil)

	for i, det := range dets {
		m.Set(i, 0, float64(det.Box[0]))
		m.Set(i, 1, float64(det.Box[1]))
		m.Set(i, 2, float64(det.Box[2]))
		m.Set(i, 3, float64(det.Box[3]))
		m.Set(i, 4, float64(det.Score))
	}

	return m
}

// detection is the parsed internal form of one detector record
type detection struct {
	box   Tlbr
	score float32
}

// parseDetections validates the detector output schema and extracts boxes
// and scores.  Five columns carry the confidence directly; six columns carry
// an object score and a class score whose product is used.
func parseDetections(output *mat.Dense) ([]detection, error) {

	if output == nil {
		return nil, nil
	}

	rows, cols := output.Dims()

	if cols != 5 && cols != 6 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShape, cols)
	}

	dets := make([]detection, rows)

	for i := 0; i < rows; i++ {

		score := float32(output.At(i, 4))

		if cols == 6 {
			score *= float32(output.At(i, 5))
		}

		dets[i] = detection{
			box: Tlbr{
				float32(output.At(i, 0)),
				float32(output.At(i, 1)),
				float32(output.At(i, 2)),
				float32(output.At(i, 3)),
			},
			score: score,
		}
	}

	return dets, nil
}

// scaleDetections maps boxes from the detector's working resolution back to
// original frame coordinates by dividing out the resize factor
func scaleDetections(dets []detection, frameSize, inputSize Size) {

	if frameSize.Height <= 0 || frameSize.Width <= 0 ||
		inputSize.Height <= 0 || inputSize.Width <= 0 {
		return
	}

	scale := float32(math.Min(
		float64(inputSize.Height)/float64(frameSize.Height),
		float64(inputSize.Width)/float64(frameSize.Width),
	))

	if scale == 1 {
		return
	}

	for i := range dets {
		for j := range dets[i].box {
			dets[i].box[j] /= scale
		}
	}
}
