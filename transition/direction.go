package transition

import (
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
)

// Direction controls the geometry of a transition, each algorithm supports a
// subset of the directions
type Direction int

const (
	LeftRight Direction = iota
	RightLeft
	UpDown
	DownUp
	DiagonalFromTopLeft
	DiagonalFromTopRight
	DiagonalFromBottomLeft
	DiagonalFromBottomRight
	OutIn
	InOut
	Horizontal
	Vertical
)

var directionNames = map[Direction]string{
	LeftRight:               "LEFT_RIGHT",
	RightLeft:               "RIGHT_LEFT",
	UpDown:                  "UP_DOWN",
	DownUp:                  "DOWN_UP",
	DiagonalFromTopLeft:     "DIAGONAL_FROM_TOP_LEFT",
	DiagonalFromTopRight:    "DIAGONAL_FROM_TOP_RIGHT",
	DiagonalFromBottomLeft:  "DIAGONAL_FROM_BOTTOM_LEFT",
	DiagonalFromBottomRight: "DIAGONAL_FROM_BOTTOM_RIGHT",
	OutIn:                   "OUT_IN",
	InOut:                   "IN_OUT",
	Horizontal:              "HORIZONTAL",
	Vertical:                "VERTICAL",
}

// Directions lists every direction in declaration order
func Directions() []Direction {
	return []Direction{
		LeftRight, RightLeft, UpDown, DownUp,
		DiagonalFromTopLeft, DiagonalFromTopRight, DiagonalFromBottomLeft, DiagonalFromBottomRight,
		OutIn, InOut, Horizontal, Vertical,
	}
}

func (d Direction) String() string {
	if name, isPresent := directionNames[d]; isPresent {
		return name
	}
	return "UNKNOWN"
}

func ParseDirection(name string) (d Direction, err errors.Error) {
	for dir, dirName := range directionNames {
		if strings.EqualFold(dirName, name) {
			return dir, nil
		}
	}
	return LeftRight, errors.Wrap(color.ErrMalformedInput, "unknown transition direction").With("direction", name).With("stack", stack.Trace().TrimRuntime())
}

func contains(dirs []Direction, d Direction) bool {
	for _, dir := range dirs {
		if dir == d {
			return true
		}
	}
	return false
}
