package ukfusion

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotPositiveDefinite is returned when the augmented covariance cannot be
	// Cholesky factorized. The filter has diverged or was seeded with an invalid
	// covariance; retrying with the same state reproduces the failure.
	ErrNotPositiveDefinite = errors.New("augmented covariance is not positive definite")
	// ErrSingularInnovation is returned when the innovation covariance S cannot be inverted.
	ErrSingularInnovation = errors.New("innovation covariance is singular")
	// ErrOutOfOrder is returned for a measurement older than the last fused one.
	ErrOutOfOrder = errors.New("measurement timestamp precedes last update")
	// ErrDimensionMismatch is returned when a vector or matrix has the wrong size.
	ErrDimensionMismatch = errors.New("dimensions must agree")
	// ErrUnknownSensor is returned for a sensor type without a measurement model.
	ErrUnknownSensor = errors.New("unknown sensor type")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	rows2cols DimensionAgreement = iota + 1
	cols2rows
	cols2cols
	rows2rows
	rowsAndcols
)

// checkMatDims checks the matrix dimensions match provided a DimensionAgreement. Returns an error if not.
func checkMatDims(m1, m2 mat.Matrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	switch method {
	case rows2cols:
		if r1 != c2 {
			return fmt.Errorf("%w: %s(%dx...) %s(...x%d)", ErrDimensionMismatch, name1, r1, name2, c2)
		}
	case cols2rows:
		if c1 != r2 {
			return fmt.Errorf("%w: %s(...x%d) %s(%dx...)", ErrDimensionMismatch, name1, c1, name2, r2)
		}
	case cols2cols:
		if c1 != c2 {
			return fmt.Errorf("%w: %s(...x%d) %s(...x%d)", ErrDimensionMismatch, name1, c1, name2, c2)
		}
	case rows2rows:
		if r1 != r2 {
			return fmt.Errorf("%w: %s(%dx...) %s(%dx...)", ErrDimensionMismatch, name1, r1, name2, r2)
		}
	case rowsAndcols:
		if c1 != c2 || r1 != r2 {
			return fmt.Errorf("%w: %s(%dx%d) %s(%dx%d)", ErrDimensionMismatch, name1, r1, c1, name2, r2, c2)
		}
	}
	return nil
}
