package grid

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
)

// Strategy selects how the binary mask is turned into a square.
type Strategy string

const (
	// StrategyPad centers the whole mask on a square canvas. It never distorts
	// the image and does not depend on grid detection, so it is the default.
	StrategyPad Strategy = "pad"

	// StrategyPerspective warps any located quad to a square and pads when
	// nothing usable is located.
	StrategyPerspective Strategy = "perspective"

	// StrategyAuto warps only when the located boundary simplified to four
	// vertices and covers at least MinQuadCoverage of the image; otherwise it pads.
	StrategyAuto Strategy = "auto"
)

// DefaultStrategy is used when no strategy is configured.
const DefaultStrategy = StrategyPad

// MinQuadCoverage is the smallest quad area, as a fraction of the image area,
// that StrategyAuto accepts.
const MinQuadCoverage = 0.2

// Path names the transform actually applied.
type Path string

const (
	PathPad         Path = "pad"
	PathPerspective Path = "perspective"
)

// ParseStrategy converts a configuration value into a Strategy.
// The empty string selects DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultStrategy, nil
	case StrategyPad:
		return StrategyPad, nil
	case StrategyPerspective:
		return StrategyPerspective, nil
	case StrategyAuto:
		return StrategyAuto, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want pad, perspective or auto)", s)
}

// Decision records how a mask was squared.
type Decision struct {
	Strategy Strategy        `json:"strategy"`
	Path     Path            `json:"path"`
	Quad     *detection.Quad `json:"quad,omitempty"`
	Reason   string          `json:"reason"`
}

// Square turns a binary mask into a square image according to the strategy.
//
// The locator is only consulted for StrategyPerspective and StrategyAuto. Any
// failure on the perspective path (no ink, degenerate corners, unsolvable
// transform) falls back to CenterPad and is explained in Decision.Reason.
func Square(bin *image.Gray, loc detection.Locator, s Strategy) (*image.Gray, Decision) {
	d := Decision{Strategy: s}
	if s == "" {
		d.Strategy = DefaultStrategy
	}

	if d.Strategy == StrategyPad || loc == nil {
		d.Path = PathPad
		d.Reason = "pad strategy"
		if loc == nil && d.Strategy != StrategyPad {
			d.Reason = "no locator configured"
		}
		return CenterPad(bin), d
	}

	q, ok := loc.Locate(bin)
	if !ok {
		d.Path = PathPad
		d.Reason = "no grid boundary found"
		return CenterPad(bin), d
	}
	d.Quad = &q

	w, h := bin.Bounds().Dx(), bin.Bounds().Dy()
	area := q.Area()
	if area < 1 {
		d.Path = PathPad
		d.Reason = "degenerate grid boundary"
		return CenterPad(bin), d
	}

	if d.Strategy == StrategyAuto {
		if q.FromBoundingBox {
			d.Path = PathPad
			d.Reason = "boundary is not a quadrilateral"
			return CenterPad(bin), d
		}
		if coverage := area / float64(w*h); coverage < MinQuadCoverage {
			d.Path = PathPad
			d.Reason = fmt.Sprintf("quadrilateral covers %.0f%% of the image", coverage*100)
			return CenterPad(bin), d
		}
	}

	square, err := Rectify(bin, q)
	if err != nil {
		d.Path = PathPad
		d.Reason = err.Error()
		return CenterPad(bin), d
	}

	d.Path = PathPerspective
	d.Reason = "perspective warp"
	if q.FromBoundingBox {
		d.Reason = "perspective warp of bounding box"
	}
	return square, d
}
