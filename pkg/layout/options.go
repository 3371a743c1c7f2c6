package layout

import "fmt"

// WidthFunc selects the quantity that drives column width.
type WidthFunc string

const (
	WidthCost   WidthFunc = "cost"
	WidthReward WidthFunc = "reward"
	WidthRatio  WidthFunc = "ratio"
)

// ValidWidthFuncs is the set of supported width functions.
var ValidWidthFuncs = map[WidthFunc]bool{
	WidthCost:   true,
	WidthReward: true,
	WidthRatio:  true,
}

const (
	// DefaultWidthFunc is used when Options.WidthFunc is empty.
	DefaultWidthFunc = WidthCost

	// DefaultFrameWidth is the drawing frame width used to derive container
	// sizes that were not given.
	DefaultFrameWidth = 1200.0

	// zeroValue replaces a zero width or ratio so the column stays visible.
	zeroValue = 0.5
)

// Options configures [Compute].
//
// ContainerWidth and ContainerHeight are the space shared by all columns and
// rows. When zero they are derived from FrameWidth after subtracting
// padding and container boxes.
type Options struct {
	WidthFunc       WidthFunc `json:"width_func,omitempty"`
	ContainerWidth  float64   `json:"container_width,omitempty"`
	ContainerHeight float64   `json:"container_height,omitempty"`
	FrameWidth      float64   `json:"frame_width,omitempty"`
}

// ValidateWidthFunc checks that a width function is supported.
func ValidateWidthFunc(w WidthFunc) error {
	if !ValidWidthFuncs[w] {
		return fmt.Errorf("invalid width_func: %q (must be one of: cost, reward, ratio)", w)
	}
	return nil
}

// SetDefaults fills empty fields.
func (o *Options) SetDefaults() {
	if o.WidthFunc == "" {
		o.WidthFunc = DefaultWidthFunc
	}
	if o.FrameWidth == 0 {
		o.FrameWidth = DefaultFrameWidth
	}
}

// ValidateAndSetDefaults fills empty fields and rejects invalid ones.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	if err := ValidateWidthFunc(o.WidthFunc); err != nil {
		return err
	}
	if o.ContainerWidth < 0 || o.ContainerHeight < 0 || o.FrameWidth < 0 {
		return fmt.Errorf("container and frame sizes must not be negative")
	}
	return nil
}
