package layout

import "math"

// Padding scales down as the matrix gets denser. Lookups pick the nearest
// entry; ties go to the earlier one.
var (
	padTable = []struct {
		count int
		pad   float64
	}{
		{0, 8},
		{0, 5},
		{40, 3},
		{60, 3},
	}

	classPadTable = []struct {
		pad, classPad float64
	}{
		{8, 24},
		{5, 20},
		{3, 18},
	}
)

// Padding holds the spacing used for placement.
type Padding struct {
	// X and Y separate neighbouring instances.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Class is added before the first instance of each class.
	Class float64 `json:"class"`
	// Box is the size of class label and container boxes.
	Box float64 `json:"box"`
}

func padFor(count int) float64 {
	best, bestDiff := 0, math.MaxInt
	for i, e := range padTable {
		d := e.count - count
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return padTable[best].pad
}

func classPadFor(pad float64) float64 {
	best, bestDiff := 0, math.Inf(1)
	for i, e := range classPadTable {
		if d := math.Abs(e.pad - pad); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return classPadTable[best].classPad
}

func newPadding(resources, activities int) Padding {
	pad := max(padFor(resources), padFor(activities))
	cp := classPadFor(pad)
	return Padding{X: pad, Y: pad, Class: cp, Box: cp}
}
