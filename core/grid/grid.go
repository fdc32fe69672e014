// Package grid computes pixel bounds for panels of a master grid image.
//
// Axis-order hazard: a grid specification string is "CxR" (columns x rows)
// while panel positions are addressed [row, col]. All types here carry named
// fields so the two conventions can never be transposed silently.
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec is a parsed grid specification: Cols columns by Rows rows.
type Spec struct {
	Cols int
	Rows int
}

func (s Spec) String() string { return fmt.Sprintf("%dx%d", s.Cols, s.Rows) }

// Panels returns the total panel count of the grid.
func (s Spec) Panels() int { return s.Cols * s.Rows }

// Position addresses one panel: 0-based, origin top-left.
type Position struct {
	Row int
	Col int
}

func (p Position) String() string { return fmt.Sprintf("[%d,%d]", p.Row, p.Col) }

// Bounds is a panel rectangle in source-image pixel space.
// Right and Bottom are exclusive.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (b Bounds) Width() int  { return b.Right - b.Left }
func (b Bounds) Height() int { return b.Bottom - b.Top }

// ParseSpec parses a "CxR" grid specification. Both dimensions must be
// positive integers; anything else is rejected outright.
func ParseSpec(s string) (Spec, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return Spec{}, specErr(s, "want exactly one 'x' separator")
	}
	cols, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Spec{}, specErr(s, "columns is not an integer")
	}
	rows, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Spec{}, specErr(s, "rows is not an integer")
	}
	if cols < 1 || rows < 1 {
		return Spec{}, specErr(s, "both dimensions must be >= 1")
	}
	return Spec{Cols: cols, Rows: rows}, nil
}

func specErr(s, why string) error {
	return fmt.Errorf("invalid grid_specification %q: %s (expected \"CxR\" = columns x rows, e.g. \"3x2\" is 3 columns by 2 rows)", s, why)
}

// PanelBounds computes the pixel bounds of the panel at pos for a master
// image of imgW x imgH split per spec. Panel size uses integer division;
// remainder pixels on the right/bottom edges belong to no panel.
func PanelBounds(pos Position, spec Spec, imgW, imgH int) (Bounds, error) {
	if imgW < spec.Cols || imgH < spec.Rows {
		return Bounds{}, fmt.Errorf("image %dx%d too small for grid %s", imgW, imgH, spec)
	}
	if pos.Row < 0 || pos.Col < 0 || pos.Row >= spec.Rows || pos.Col >= spec.Cols {
		return Bounds{}, fmt.Errorf("grid_position %s out of range for grid %s (rows 0..%d, cols 0..%d; position is [row,col])",
			pos, spec, spec.Rows-1, spec.Cols-1)
	}
	pw := imgW / spec.Cols
	ph := imgH / spec.Rows
	b := Bounds{
		Left: pos.Col * pw,
		Top:  pos.Row * ph,
	}
	b.Right = b.Left + pw
	b.Bottom = b.Top + ph
	return b, nil
}
