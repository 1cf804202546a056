// Package icon renders calendar cell glyphs: SVG shapes for partial
// progress and the pure selection logic that decides which glyph a
// (habit, day, value) combination gets.
package icon

import (
	"fmt"
	"math"
)

// Shape is the per-view glyph family toggle. It is a view concern, not
// a habit attribute.
type Shape string

const (
	Circle Shape = "circle"
	Square Shape = "square"
)

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool { return s == Circle || s == Square }

const svgSize = 16

// CircleSector returns a pie-style circle filled clockwise to the
// given fraction of progress in [0,1].
func CircleSector(progress float64, color string) string {
	p := clamp(progress)
	center := float64(svgSize) / 2
	radius := center - 1.5

	angle := p * 2 * math.Pi
	x := center + radius*math.Sin(angle)
	y := center - radius*math.Cos(angle)
	largeArc := 0
	if p > 0.5 {
		largeArc = 1
	}
	path := fmt.Sprintf("M %g,%g L %g,%g A %g,%g 0 %d,1 %g,%g Z",
		center, center, center, center-radius, radius, radius, largeArc, x, y)

	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" style="vertical-align: middle;"><circle cx="%g" cy="%g" r="%g" stroke="currentColor" stroke-width="1.5" fill="none" opacity="0.2"/><path d="%s" fill="%s"/></svg>`,
		svgSize, svgSize, svgSize, svgSize, center, center, radius, path, color)
}

// CompletedCircle returns a filled circle with a tick mark.
func CompletedCircle(color string) string {
	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 24 24" style="vertical-align: middle; border-radius: 50%%;"><circle cx="12" cy="12" r="11" fill="%s"/><path d="M9 16.17L4.83 12l-1.42 1.41L9 19 21 7l-1.41-1.41L9 16.17z" fill="white"/></svg>`,
		svgSize, svgSize, color)
}

// FailedCircle returns a muted circle with a cross mark.
func FailedCircle() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 24 24" style="vertical-align: middle; border-radius: 50%%;"><circle cx="12" cy="12" r="11" fill="#cccccc" fill-opacity="0.5"/><path d="M19 6.41L17.59 5 12 10.59 6.41 5 5 6.41 10.59 12 5 17.59 6.41 19 12 13.41 17.59 19 19 17.59 13.41 12 19 6.41z" fill="white"/></svg>`,
		svgSize, svgSize)
}

// SquareFill returns a square filled left-to-right to the given
// fraction of progress in [0,1].
func SquareFill(progress float64, color string) string {
	p := clamp(progress)
	const stroke = 2.0
	inner := float64(svgSize) - stroke*2

	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" style="vertical-align: middle;"><rect x="%g" y="%g" width="%g" height="%g" stroke="currentColor" stroke-width="%g" fill="none" opacity="0.2"/><rect x="%g" y="%g" width="%g" height="%g" fill="%s"/></svg>`,
		svgSize, svgSize, svgSize, svgSize,
		stroke/2, stroke/2, svgSize-stroke, svgSize-stroke, stroke,
		stroke, stroke, inner*p, inner, color)
}

// CompletedSquare returns a filled rounded square with a tick mark.
func CompletedSquare(color string) string {
	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 24 24" style="vertical-align: middle;"><rect width="24" height="24" fill="%s" rx="4"/><path d="M9 16.17L4.83 12l-1.42 1.41L9 19 21 7l-1.41-1.41L9 16.17z" fill="white"/></svg>`,
		svgSize, svgSize, color)
}

// FailedSquare returns a muted rounded square with a cross mark.
func FailedSquare() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 24 24" style="vertical-align: middle;"><rect width="24" height="24" fill="#cccccc" fill-opacity="0.5" rx="4"/><path d="M19 6.41L17.59 5 12 10.59 6.41 5 5 6.41 10.59 12 5 17.59 6.41 19 12 13.41 17.59 19 19 17.59 13.41 12 19 6.41z" fill="white"/></svg>`,
		svgSize, svgSize)
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
