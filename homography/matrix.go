package homography

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"court-motion/geom"
)

// Matrix is a 3x3 projective transform in row-major order.
type Matrix [3][3]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply maps (x, y) through the homography. ok is false when the point
// lies on the line mapped to infinity (denominator ~ 0).
func (m Matrix) Apply(x, y float64) (u, v float64, ok bool) {
	w := m[2][0]*x + m[2][1]*y + m[2][2]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	u = (m[0][0]*x + m[0][1]*y + m[0][2]) / w
	v = (m[1][0]*x + m[1][1]*y + m[1][2]) / w
	return u, v, true
}

// Mul returns the matrix product m*other.
func (m Matrix) Mul(other Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[i][k] * other[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Scale returns the matrix with every entry multiplied by f.
func (m Matrix) Scale(f float64) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] * f
		}
	}
	return out
}

// Frobenius returns the Frobenius norm of the matrix.
func (m Matrix) Frobenius() float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum += m[i][j] * m[i][j]
		}
	}
	return math.Sqrt(sum)
}

// Inverse returns the inverse transform, or an error for singular input.
func (m Matrix) Inverse() (Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		return Matrix{}, errors.New("homography: matrix is singular")
	}
	return fromDense(&inv), nil
}

// Cond returns the 2-norm condition number ||M|| * ||M^-1||.
func (m Matrix) Cond() float64 {
	return mat.Cond(m.dense(), 2)
}

func (m Matrix) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func fromDense(d *mat.Dense) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = d.At(i, j)
		}
	}
	return out
}

// projectToPlane maps an image point onto the court plane (x, z) in world
// meters through h.
func projectToPlane(h Matrix, p geom.Point2D) (geom.Point3D, bool) {
	u, v, ok := h.Apply(p.X, p.Y)
	if !ok {
		return geom.Point3D{}, false
	}
	return geom.Point3D{X: u, Y: 0, Z: v, Space: geom.SpaceWorld}, true
}
