package ukfusion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetryTolerance is the relative asymmetry AsSymDense accepts from round-off.
const symmetryTolerance = 1e-9

// Identity returns an identity matrix of the provided size.
func Identity(n int) *mat.SymDense {
	return ScaledIdentity(n, 1)
}

// ScaledIdentity returns an identity matrix time a scaling factor of the provided size.
func ScaledIdentity(n int, s float64) *mat.SymDense {
	vals := make([]float64, n*n)
	for j := 0; j < n*n; j += n + 1 {
		vals[j] = s
	}
	return mat.NewSymDense(n, vals)
}

// Diagonal returns a symmetric matrix with the provided values on its diagonal.
func Diagonal(diag ...float64) *mat.SymDense {
	n := len(diag)
	m := mat.NewSymDense(n, nil)
	for i, v := range diag {
		m.SetSym(i, i, v)
	}
	return m
}

// AsSymDense returns a SymDense from the provided square matrix. The two
// triangles are averaged, so round-off asymmetry is removed, but an error is
// returned if they differ by more than the symmetry tolerance.
func AsSymDense(m mat.Matrix) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.New("matrix must be square")
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			a, b := m.At(i, j), m.At(j, i)
			scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
			if math.Abs(a-b) > symmetryTolerance*scale {
				return nil, fmt.Errorf("matrix is not symmetric at (%d,%d): %g != %g", i, j, a, b)
			}
			sym.SetSym(i, j, (a+b)/2)
		}
	}
	return sym, nil
}

// IsSymmetric returns whether m is square and symmetric within tol.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// NormalizeAngle wraps a into (-π, π] in constant time.
// NaN and infinite inputs return NaN.
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return math.NaN()
	}
	if a > -math.Pi && a <= math.Pi {
		return a
	}
	r := math.Mod(a+math.Pi, 2*math.Pi)
	if r <= 0 {
		r += 2 * math.Pi
	}
	r -= math.Pi
	if r <= -math.Pi {
		return math.Pi
	}
	return r
}
