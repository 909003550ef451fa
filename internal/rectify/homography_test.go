package rectify

import (
	"errors"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

func TestSolveHomography_MapsCorners(t *testing.T) {
	tests := []struct {
		name string
		src  [4]r2.Point
		dst  [4]r2.Point
	}{
		{
			name: "trapezoid to rectangle",
			src:  [4]r2.Point{pt(40, 30), pt(160, 30), pt(190, 270), pt(10, 270)},
			dst:  [4]r2.Point{pt(0, 0), pt(180, 0), pt(180, 240), pt(0, 240)},
		},
		{
			name: "large frame",
			src:  [4]r2.Point{pt(200, 300), pt(1800, 310), pt(1790, 2700), pt(210, 2690)},
			dst:  [4]r2.Point{pt(0, 0), pt(1600, 0), pt(1600, 2400), pt(0, 2400)},
		},
		{
			name: "pure translation",
			src:  [4]r2.Point{pt(5, 5), pt(15, 5), pt(15, 15), pt(5, 15)},
			dst:  [4]r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := SolveHomography(tt.src, tt.dst)
			if err != nil {
				t.Fatalf("SolveHomography failed: %v", err)
			}
			inv, err := h.Inverse()
			if err != nil {
				t.Fatalf("Inverse failed: %v", err)
			}
			for i := range tt.src {
				if got := h.Apply(tt.src[i]); got.Sub(tt.dst[i]).Norm() > 1e-6 {
					t.Errorf("corner %d: mapped to %v, want %v", i, got, tt.dst[i])
				}
				if back := inv.Apply(tt.dst[i]); back.Sub(tt.src[i]).Norm() > 1e-6 {
					t.Errorf("corner %d: inverse mapped to %v, want %v", i, back, tt.src[i])
				}
			}
		})
	}
}

func TestSolveHomography_Degenerate(t *testing.T) {
	same := [4]r2.Point{pt(3, 3), pt(3, 3), pt(3, 3), pt(3, 3)}
	dst := [4]r2.Point{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)}

	if _, err := SolveHomography(same, dst); !errors.Is(err, geometry.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}

	if _, err := SolveHomography(dst, same); !errors.Is(err, geometry.ErrDegenerateGeometry) {
		t.Errorf("reversed: expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestHomography_Matrix(t *testing.T) {
	h, err := SolveHomography(
		[4]r2.Point{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)},
		[4]r2.Point{pt(0, 0), pt(2, 0), pt(2, 2), pt(0, 2)},
	)
	if err != nil {
		t.Fatalf("SolveHomography failed: %v", err)
	}
	m := h.Matrix()
	for i := range m {
		m[i] /= m[8]
	}
	want := [9]float64{2, 0, 0, 0, 2, 0, 0, 0, 1}
	for i := range want {
		if d := m[i] - want[i]; d > 1e-9 || d < -1e-9 {
			t.Errorf("m[%d]: got %v, want %v", i, m[i], want[i])
		}
	}
}
