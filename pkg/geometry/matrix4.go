package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix4 is a 4x4 affine transform stored column-major, the same layout
// tracking providers use for world transforms: m[col][row].
// Column 3 holds the translation.
type Matrix4 [4][4]float64

// Identity returns the identity transform
func Identity() Matrix4 {
	var m Matrix4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// Translation returns a transform that moves points by (x, y, z)
func Translation(x, y, z float64) Matrix4 {
	m := Identity()
	m[3][0], m[3][1], m[3][2] = x, y, z
	return m
}

// FromColumns builds a transform from basis vectors and a position
func FromColumns(xAxis, yAxis, zAxis, position Vector3) Matrix4 {
	return Matrix4{
		{xAxis.X, xAxis.Y, xAxis.Z, 0},
		{yAxis.X, yAxis.Y, yAxis.Z, 0},
		{zAxis.X, zAxis.Y, zAxis.Z, 0},
		{position.X, position.Y, position.Z, 1},
	}
}

// Column returns the xyz part of column i
func (m Matrix4) Column(i int) Vector3 {
	return Vector3{X: m[i][0], Y: m[i][1], Z: m[i][2]}
}

// Position extracts the translation of the transform
func (m Matrix4) Position() Vector3 {
	return m.Column(3)
}

// dense converts to a row-major gonum matrix
func (m Matrix4) dense() *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			d.Set(row, col, m[col][row])
		}
	}
	return d
}

func fromDense(d mat.Matrix) Matrix4 {
	var m Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			m[col][row] = d.At(row, col)
		}
	}
	return m
}

// Mul returns m * other (other is applied first)
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var out mat.Dense
	out.Mul(m.dense(), other.dense())
	return fromDense(&out)
}

// Inverse returns the inverse transform, or an error if m is singular
func (m Matrix4) Inverse() (Matrix4, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		return Matrix4{}, fmt.Errorf("failed to invert transform: %w", err)
	}
	return fromDense(&inv), nil
}

// TransformPoint applies the transform to a point (w = 1)
func (m Matrix4) TransformPoint(p Vector3) Vector3 {
	v := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1})
	var out mat.VecDense
	out.MulVec(m.dense(), v)
	w := out.AtVec(3)
	if w == 0 || w == 1 {
		return Vector3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
	}
	return Vector3{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}
}

// RotationX returns a rotation about the X axis by angle radians
func RotationX(angle float64) Matrix4 {
	m := Identity()
	c, s := math.Cos(angle), math.Sin(angle)
	m[1][1], m[1][2] = c, s
	m[2][1], m[2][2] = -s, c
	return m
}

// RotationY returns a rotation about the Y axis by angle radians
func RotationY(angle float64) Matrix4 {
	m := Identity()
	c, s := math.Cos(angle), math.Sin(angle)
	m[0][0], m[0][2] = c, -s
	m[2][0], m[2][2] = s, c
	return m
}
