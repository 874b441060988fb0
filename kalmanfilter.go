package bytetrack

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateMean is the 8 element motion state vector: center x, center y, aspect
// ratio, height and their velocities
type StateMean []float32

// MotionState carries one track's motion estimate between Predictor calls
type MotionState struct {
	Mean StateMean
	Cov  *mat.Dense
}

// NewMotionState returns a zeroed 8 dimensional motion state
func NewMotionState() *MotionState {
	return &MotionState{
		Mean: make(StateMean, 8),
		Cov:  mat.NewDense(8, 8, nil),
	}
}

// Predictor is the motion model contract the tracker depends on.  Initiate
// seeds a state from a detection box, Predict advances a state one frame,
// BatchPredict advances many states in one call (semantically equivalent to
// calling Predict on each, but an implementation may share computation) and
// Update applies the Bayesian correction for an observed box.  Boxes are
// given in Xyah form.
type Predictor interface {
	Initiate(s *MotionState, box Xyah)
	Predict(s *MotionState)
	BatchPredict(states []*MotionState)
	Update(s *MotionState, box Xyah) error
}

// KalmanFilter is the default Predictor: a constant velocity model over the
// Xyah box form
type KalmanFilter struct {
	stdWeightPosition float32
	stdWeightVelocity float32
	motionMat         *mat.Dense
	updateMat         *mat.Dense
}

var _ Predictor = (*KalmanFilter)(nil)

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float32) *KalmanFilter {

	ndim := 4
	dt := float32(1.0)

	// motion matrix is identity with dt on the velocity off-diagonal
	motionMat := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionMat.Set(i, i, float64(1.0))
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, float64(dt))
	}

	// updateMat projects the 8 dim state down to the 4 dim measurement
	updateMat := mat.NewDense(4, 8, nil)

	for i := 0; i < 4; i++ {
		updateMat.Set(i, i, float64(1.0))
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// Initiate initializes the state mean and covariance from an unassociated
// measurement box
func (kf *KalmanFilter) Initiate(s *MotionState, box Xyah) {

	// position components come straight from the measurement, velocities
	// start at zero
	copy(s.Mean[:4], box[:4])

	for i := 4; i < 8; i++ {
		s.Mean[i] = 0.0
	}

	std := make(StateMean, 8)
	std[0] = 2 * kf.stdWeightPosition * box[3]  // x position
	std[1] = 2 * kf.stdWeightPosition * box[3]  // y position
	std[2] = 1e-2                               // aspect ratio
	std[3] = 2 * kf.stdWeightPosition * box[3]  // height
	std[4] = 10 * kf.stdWeightVelocity * box[3] // x velocity
	std[5] = 10 * kf.stdWeightVelocity * box[3] // y velocity
	std[6] = 1e-5                               // aspect ratio velocity
	std[7] = 10 * kf.stdWeightVelocity * box[3] // height velocity

	for i := 0; i < 8; i++ {
		s.Cov.Set(i, i, float64(std[i]*std[i]))
	}
}

// Predict advances the state mean and covariance one frame
func (kf *KalmanFilter) Predict(s *MotionState) {

	std := make(StateMean, 8)
	std[0] = kf.stdWeightPosition * s.Mean[3] // x position
	std[1] = kf.stdWeightPosition * s.Mean[3] // y position
	std[2] = 1e-2                             // aspect ratio
	std[3] = kf.stdWeightPosition * s.Mean[3] // height
	std[4] = kf.stdWeightVelocity * s.Mean[3] // x velocity
	std[5] = kf.stdWeightVelocity * s.Mean[3] // y velocity
	std[6] = 1e-5                             // aspect ratio velocity
	std[7] = kf.stdWeightVelocity * s.Mean[3] // height velocity

	// process noise with the squared deviations on the diagonal
	motionCov := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionCov.Set(i, i, float64(std[i]*std[i]))
	}

	// advance the mean through the motion model
	meanMat := mat.NewDense(8, 1, nil)

	for i := 0; i < 8; i++ {
		meanMat.Set(i, 0, float64(s.Mean[i]))
	}

	meanMat.Mul(kf.motionMat, meanMat)

	for i := 0; i < 8; i++ {
		s.Mean[i] = float32(meanMat.At(i, 0))
	}

	// advance the covariance: F * P * F^T + Q
	cov := s.Cov
	cov.Mul(kf.motionMat, cov)
	cov.Mul(cov, kf.motionMat.T())
	cov.Add(cov, motionCov)
}

// BatchPredict advances a set of states one frame.  The shared motion model
// makes this a plain loop over Predict.
func (kf *KalmanFilter) BatchPredict(states []*MotionState) {
	for _, s := range states {
		kf.Predict(s)
	}
}

// Update corrects the state mean and covariance with an observed box
func (kf *KalmanFilter) Update(s *MotionState, box Xyah) error {

	// project the state down to measurement space
	projectedMean, projectedCov := kf.project(s)

	chol := mat.Cholesky{}

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// B = P * H^T, solved against the projected covariance for the gain
	B := mat.NewDense(8, 4, nil)
	B.Mul(s.Cov, kf.updateMat.T())

	var kalmanGain mat.Dense
	err := chol.SolveTo(&kalmanGain, B.T())

	if err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	// innovation is the measurement residual
	innovation := make([]float64, 4)

	for i := 0; i < 4; i++ {
		innovation[i] = float64(box[i] - projectedMean[i])
	}

	innovationVec := mat.NewVecDense(4, innovation)
	tmp := mat.NewVecDense(8, nil)
	tmp.MulVec(kalmanGain.T(), innovationVec)

	for i := 0; i < 8; i++ {
		s.Mean[i] += float32(tmp.AtVec(i))
	}

	// P - K^T * S * K
	temp := mat.NewDense(8, 4, nil)
	temp.Mul(kalmanGain.T(), projectedCov)

	temp2 := mat.NewDense(8, 8, nil)
	temp2.Mul(temp, &kalmanGain)

	newCov := mat.NewDense(8, 8, nil)
	newCov.Sub(s.Cov, temp2)

	s.Cov = newCov

	return nil
}

// project maps the state mean and covariance into measurement space
func (kf *KalmanFilter) project(s *MotionState) ([]float32, *mat.SymDense) {

	std := make([]float32, 4)
	std[0] = kf.stdWeightPosition * s.Mean[3]
	std[1] = kf.stdWeightPosition * s.Mean[3]
	std[2] = 1e-1
	std[3] = kf.stdWeightPosition * s.Mean[3]

	// measurement noise covariance
	innovationCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		innovationCov.SetSym(i, i, float64(std[i]*std[i]))
	}

	meanVec := mat.NewVecDense(8, nil)

	for i := 0; i < 8; i++ {
		meanVec.SetVec(i, float64(s.Mean[i]))
	}

	projectedMeanVec := mat.NewVecDense(4, nil)
	projectedMeanVec.MulVec(kf.updateMat, meanVec)

	// H * P * H^T
	temp := mat.NewDense(4, 8, nil)
	temp.Mul(kf.updateMat, s.Cov)
	temp2 := mat.NewDense(4, 4, nil)
	temp2.Mul(temp, kf.updateMat.T())

	projectedCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			projectedCov.SetSym(i, j, temp2.At(i, j))
		}
	}

	projectedCov.AddSym(projectedCov, innovationCov)

	projectedMean := make([]float32, 4)

	for i := 0; i < 4; i++ {
		projectedMean[i] = float32(projectedMeanVec.AtVec(i))
	}

	return projectedMean, projectedCov
}
