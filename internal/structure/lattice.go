package structure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Lattice holds the three row vectors of a periodic cell, in angstroms.
type Lattice struct {
	Vectors [3][3]float64 `json:"matrix"`
}

// NewLattice builds a lattice from row vectors.
func NewLattice(vectors [3][3]float64) Lattice {
	return Lattice{Vectors: vectors}
}

// CubicLattice returns a cubic lattice with edge length a.
func CubicLattice(a float64) Lattice {
	return Lattice{Vectors: [3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}}}
}

// Dense returns the lattice as a gonum matrix with rows as lattice vectors.
func (l Lattice) Dense() *mat.Dense {
	data := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		data = append(data, l.Vectors[i][0], l.Vectors[i][1], l.Vectors[i][2])
	}
	return mat.NewDense(3, 3, data)
}

// Volume returns the unsigned cell volume.
func (l Lattice) Volume() float64 {
	return math.Abs(mat.Det(l.Dense()))
}

// Lengths returns the lengths of the three lattice vectors.
func (l Lattice) Lengths() [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = math.Sqrt(dot(l.Vectors[i], l.Vectors[i]))
	}
	return out
}

// Angles returns the cell angles alpha, beta, gamma in degrees.
func (l Lattice) Angles() [3]float64 {
	lengths := l.Lengths()
	var out [3]float64
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		k := (i + 2) % 3
		cosangle := dot(l.Vectors[j], l.Vectors[k]) / (lengths[j] * lengths[k])
		cosangle = math.Max(-1, math.Min(1, cosangle))
		out[i] = math.Acos(cosangle) * 180 / math.Pi
	}
	return out
}

// CartesianToFractional converts a cartesian coordinate to fractional.
func (l Lattice) CartesianToFractional(cart [3]float64) ([3]float64, error) {
	var inv mat.Dense
	if err := inv.Inverse(l.Dense()); err != nil {
		return [3]float64{}, fmt.Errorf("singular lattice: %w", err)
	}
	// frac = cart * L^-1 for row-vector lattices.
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = cart[0]*inv.At(0, i) + cart[1]*inv.At(1, i) + cart[2]*inv.At(2, i)
	}
	return out, nil
}

// FractionalToCartesian converts a fractional coordinate to cartesian.
func (l Lattice) FractionalToCartesian(frac [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = frac[0]*l.Vectors[0][i] + frac[1]*l.Vectors[1][i] + frac[2]*l.Vectors[2][i]
	}
	return out
}

// NiggliReduced returns the Niggli-reduced form of the lattice using the
// Krivy-Gruber algorithm. The reduced cell is the standard compact
// representation: shortest vectors, angles closest to 90 degrees.
func (l Lattice) NiggliReduced(tol float64) (Lattice, error) {
	if tol <= 0 {
		tol = 1e-5
	}
	// Metric tensor terms per Krivy & Gruber (1976).
	a := dot(l.Vectors[0], l.Vectors[0])
	b := dot(l.Vectors[1], l.Vectors[1])
	c := dot(l.Vectors[2], l.Vectors[2])
	xi := 2 * dot(l.Vectors[1], l.Vectors[2])
	eta := 2 * dot(l.Vectors[0], l.Vectors[2])
	zeta := 2 * dot(l.Vectors[0], l.Vectors[1])

	// Transformation accumulated as an integer change-of-basis matrix.
	trans := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	apply := func(m [3][3]float64) {
		trans = matmul(m, trans)
	}

	eps := tol * math.Pow(l.Volume(), 1.0/3.0)
	for iter := 0; iter < 100; iter++ {
		// A1
		if a > b+eps || (math.Abs(a-b) < eps && math.Abs(xi) > math.Abs(eta)+eps) {
			a, b = b, a
			xi, eta = eta, xi
			apply([3][3]float64{{0, -1, 0}, {-1, 0, 0}, {0, 0, -1}})
		}
		// A2
		if b > c+eps || (math.Abs(b-c) < eps && math.Abs(eta) > math.Abs(zeta)+eps) {
			b, c = c, b
			eta, zeta = zeta, eta
			apply([3][3]float64{{-1, 0, 0}, {0, 0, -1}, {0, -1, 0}})
			continue
		}
		// A3 / A4: fix signs of xi, eta, zeta.
		lmn := signProduct(xi, eta, zeta, eps)
		if lmn > 0 {
			i, j, k := signFlip(xi, eps), signFlip(eta, eps), signFlip(zeta, eps)
			xi, eta, zeta = math.Abs(xi), math.Abs(eta), math.Abs(zeta)
			apply([3][3]float64{{i, 0, 0}, {0, j, 0}, {0, 0, k}})
		} else {
			i, j, k := antiFlip(xi, eta, zeta, eps)
			xi, eta, zeta = -math.Abs(xi), -math.Abs(eta), -math.Abs(zeta)
			apply([3][3]float64{{i, 0, 0}, {0, j, 0}, {0, 0, k}})
		}
		// A5
		if math.Abs(xi) > b+eps || (math.Abs(xi-b) < eps && 2*eta < zeta-eps) || (math.Abs(xi+b) < eps && zeta < -eps) {
			sign := 1.0
			if xi < 0 {
				sign = -1.0
			}
			c += b - xi*sign
			eta -= zeta * sign
			xi -= 2 * b * sign
			apply([3][3]float64{{1, 0, 0}, {0, 1, -sign}, {0, 0, 1}})
			continue
		}
		// A6
		if math.Abs(eta) > a+eps || (math.Abs(eta-a) < eps && 2*xi < zeta-eps) || (math.Abs(eta+a) < eps && zeta < -eps) {
			sign := 1.0
			if eta < 0 {
				sign = -1.0
			}
			c += a - eta*sign
			xi -= zeta * sign
			eta -= 2 * a * sign
			apply([3][3]float64{{1, 0, -sign}, {0, 1, 0}, {0, 0, 1}})
			continue
		}
		// A7
		if math.Abs(zeta) > a+eps || (math.Abs(zeta-a) < eps && 2*xi < eta-eps) || (math.Abs(zeta+a) < eps && eta < -eps) {
			sign := 1.0
			if zeta < 0 {
				sign = -1.0
			}
			b += a - zeta*sign
			xi -= eta * sign
			zeta -= 2 * a * sign
			apply([3][3]float64{{1, -sign, 0}, {0, 1, 0}, {0, 0, 1}})
			continue
		}
		// A8
		if xi+eta+zeta+a+b < -eps || (math.Abs(xi+eta+zeta+a+b) < eps && 2*(a+eta)+zeta > eps) {
			c += a + b + xi + eta + zeta
			xi += 2*b + zeta
			eta += 2*a + zeta
			apply([3][3]float64{{1, 0, 1}, {0, 1, 1}, {0, 0, 1}})
			continue
		}
		break
	}

	reduced := matmul(trans, l.Vectors)
	return Lattice{Vectors: reduced}, nil
}

func signProduct(xi, eta, zeta, eps float64) int {
	count := 0
	for _, v := range []float64{xi, eta, zeta} {
		if v < -eps {
			count++
		}
	}
	if count%2 == 0 {
		return 1
	}
	return -1
}

func signFlip(v, eps float64) float64 {
	if v < -eps {
		return -1
	}
	return 1
}

func antiFlip(xi, eta, zeta, eps float64) (float64, float64, float64) {
	i, j, k := 1.0, 1.0, 1.0
	var undecided *float64
	if xi > eps {
		i = -1
	} else if !(xi < -eps) {
		undecided = &i
	}
	if eta > eps {
		j = -1
	} else if !(eta < -eps) {
		undecided = &j
	}
	if zeta > eps {
		k = -1
	} else if !(zeta < -eps) {
		undecided = &k
	}
	if i*j*k < 0 && undecided != nil {
		*undecided = -1
	}
	return i, j, k
}

func matmul(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
