package bytetrack

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// floatsEqual compares slices of float32
func floatsEqual(a, b []float32, epsilon float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if diff := a[i] - b[i]; diff > epsilon || diff < -epsilon {
			return false
		}
	}
	return true
}

// matricesEqual compares matrices
func matricesEqual(a, b mat.Matrix, epsilon float64) bool {
	r1, c1 := a.Dims()
	r2, c2 := b.Dims()

	if r1 != r2 || c1 != c2 {
		return false
	}

	for i := 0; i < r1; i++ {
		for j := 0; j < c1; j++ {
			if diff := a.At(i, j) - b.At(i, j); diff > epsilon || diff < -epsilon {
				return false
			}
		}
	}

	return true
}

// TestKalmanFilter checks the filter output against reference values
func TestKalmanFilter(t *testing.T) {

	kf := NewKalmanFilter(1.0/20, 1.0/160)

	s := NewMotionState()
	measurement := Xyah{100.0, 200.0, 1.0, 50.0}

	kf.Initiate(s, measurement)

	expectedMeanInit := StateMean{100.0, 200.0, 1.0, 50.0, 0.0, 0.0, 0.0, 0.0}

	expectedCovInit := mat.NewDense(8, 8, []float64{
		25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 9.999999747378752e-05, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 25.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 9.999999439624929e-11, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 9.765625,
	})

	if !floatsEqual(s.Mean, expectedMeanInit, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanInit, s.Mean)
	}

	if !matricesEqual(s.Cov, expectedCovInit, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovInit), mat.Formatted(s.Cov))
	}

	kf.Predict(s)

	expectedMeanPredict := StateMean{100.0, 200.0, 1.0, 50.0, 0.0, 0.0, 0.0, 0.0}
	expectedCovPredict := mat.NewDense(8, 8, []float64{
		41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.00020000009494756943, 0.0, 0.0, 0.0, 9.999999439624929e-11, 0.0,
		0.0, 0.0, 0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625,
		9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0, 0.0,
		0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0,
		0.0, 0.0, 9.999999439624929e-11, 0.0, 0.0, 0.0, 1.9999998879249858e-10, 0.0,
		0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125,
	})

	if !floatsEqual(s.Mean, expectedMeanPredict, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanPredict, s.Mean)
	}

	if !matricesEqual(s.Cov, expectedCovPredict, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovPredict), mat.Formatted(s.Cov))
	}

	measurement = Xyah{105.0, 205.0, 1.1, 55.0}

	if err := kf.Update(s, measurement); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	expectedMeanUpdate := StateMean{104.338844, 204.338837, 1.001961, 54.338844,
		1.033058, 1.033058, 0.0, 1.033058}
	expectedCovUpdate := mat.NewDense(8, 8, []float64{
		5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0, 0.0,
		0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0,
		0.0, 0.0, 0.00019607852290531608, 0.0, 0.0, 0.0, 9.803920941585902e-11, 0.0,
		0.0, 0.0, 0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873,
		1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0, 0.0,
		0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0,
		0.0, 0.0, 9.803920941585902e-11, 0.0, 0.0, 0.0, 1.9999998781210662e-10, 0.0,
		0.0, 0.0, 0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521,
	})

	if !floatsEqual(s.Mean, expectedMeanUpdate, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanUpdate, s.Mean)
	}

	if !matricesEqual(s.Cov, expectedCovUpdate, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovUpdate), mat.Formatted(s.Cov))
	}
}

// TestKalmanFilterBatchPredict checks BatchPredict matches per-state Predict
func TestKalmanFilterBatchPredict(t *testing.T) {

	kf := NewKalmanFilter(1.0/20, 1.0/160)

	boxes := []Xyah{
		{100, 200, 1.0, 50},
		{300, 120, 0.5, 80},
		{40, 60, 1.2, 25},
	}

	single := make([]*MotionState, len(boxes))
	batch := make([]*MotionState, len(boxes))

	for i, box := range boxes {
		single[i] = NewMotionState()
		batch[i] = NewMotionState()
		kf.Initiate(single[i], box)
		kf.Initiate(batch[i], box)
	}

	for _, s := range single {
		kf.Predict(s)
	}

	kf.BatchPredict(batch)

	for i := range boxes {
		if !floatsEqual(single[i].Mean, batch[i].Mean, 0) {
			t.Errorf("state %d: batch mean %v differs from single mean %v",
				i, batch[i].Mean, single[i].Mean)
		}
		if !matricesEqual(single[i].Cov, batch[i].Cov, 0) {
			t.Errorf("state %d: batch covariance differs from single covariance", i)
		}
	}
}
