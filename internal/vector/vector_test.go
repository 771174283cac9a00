package vector

import (
	"errors"
	"testing"

	"github.com/haivivi/mtreecluster/internal/errkind"
)

func TestNewValidates(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		data    []float32
		wantErr bool
	}{
		{"ok", "a", []float32{1, 2, 3}, false},
		{"empty id", "", []float32{1}, true},
		{"empty data", "a", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, tc.data, nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New(%q, %v) error = %v, wantErr %v", tc.id, tc.data, err, tc.wantErr)
			}
			if tc.wantErr && !errors.Is(err, errkind.ErrInvalidArgument) {
				t.Fatalf("New(%q, %v) error = %v, want errkind.ErrInvalidArgument", tc.id, tc.data, err)
			}
		})
	}
}

func TestNewCopiesData(t *testing.T) {
	data := []float32{1, 2, 3}
	v, err := New("a", data, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data[0] = 99
	if v.Data[0] == 99 {
		t.Fatalf("Vector.Data aliases caller's slice, got %v", v.Data)
	}
}

func TestDim(t *testing.T) {
	v, _ := New("a", []float32{1, 2, 3, 4}, nil)
	if got := v.Dim(); got != 4 {
		t.Fatalf("Dim() = %d, want 4", got)
	}
}

func TestSearchResultLess(t *testing.T) {
	a := SearchResult{Vector: Vector{ID: "a"}, Distance: 1.0}
	b := SearchResult{Vector: Vector{ID: "b"}, Distance: 2.0}
	if !a.Less(b) {
		t.Fatalf("expected closer distance to sort first")
	}
	if b.Less(a) {
		t.Fatalf("expected farther distance not to sort first")
	}

	tieA := SearchResult{Vector: Vector{ID: "a"}, Distance: 1.0}
	tieB := SearchResult{Vector: Vector{ID: "b"}, Distance: 1.0}
	if !tieA.Less(tieB) {
		t.Fatalf("expected tie-break by ascending id")
	}
}
