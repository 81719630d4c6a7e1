package vector

import (
	"math"
	"testing"
)

func TestInnerProduct(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"parallel", []float32{0.6, 0.8}, []float32{0.6, 0.8}, 1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InnerProduct(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("InnerProduct() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([][]float32{{1, 0}, {0, 1}}, 2)
	if math.Abs(L2Norm(c)-1) > 1e-6 {
		t.Errorf("centroid not normalized: %v", c)
	}
	if math.Abs(float64(c[0]-c[1])) > 1e-6 {
		t.Errorf("centroid = %v, want equal components", c)
	}
	if L2Norm(Centroid(nil, 3)) != 0 {
		t.Error("empty centroid should be zero")
	}
}

func TestNearest(t *testing.T) {
	idx, sim := Nearest([]float32{1, 0}, [][]float32{{0, 1}, {0.8, 0.6}, {0.8, 0.6}})
	if idx != 1 || math.Abs(sim-0.8) > 1e-6 {
		t.Errorf("Nearest() = %d, %f", idx, sim)
	}
	if idx, _ := Nearest([]float32{1}, nil); idx != -1 {
		t.Errorf("Nearest(no candidates) = %d", idx)
	}
}

func TestNormalize(t *testing.T) {
	x := []float32{3, 4}
	Normalize(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("Normalize() = %v", x)
	}
	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize(zero) = %v", zero)
	}
}
