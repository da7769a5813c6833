// Package host describes the editing component the column tools run against.
//
// The column algorithms and the elastic tabstops engine never own text
// storage or rendering. They read and change a document only through the
// interfaces in this package, which mirror what a code editor widget offers:
// positions and lines, pixel geometry, per-line custom tab stops, multiple
// selections with virtual space, range replacement grouped into undo
// actions, and one indicator used to mark a search region.
package host

import "fmt"

// SelectionMode is the shape of the host's current selection.
type SelectionMode int

const (
	ModeStream SelectionMode = iota
	ModeRectangle
	ModeLines
	ModeThin
)

func (m SelectionMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRectangle:
		return "rectangle"
	case ModeLines:
		return "lines"
	case ModeThin:
		return "thin"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsRectangular reports whether the mode is a block selection.
func (m SelectionMode) IsRectangular() bool {
	return m == ModeRectangle || m == ModeThin
}

// Span is a half-open range of byte positions.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Text gives access to the document contents by byte position and line.
type Text interface {
	Length() int
	LineCount() int
	LineFromPosition(pos int) int
	PositionFromLine(line int) int
	LineEndPosition(line int) int
	TextRange(start, end int) string
	CharAt(pos int) byte
	// PositionAfter and PositionBefore step over whole characters.
	PositionAfter(pos int) int
	PositionBefore(pos int) int
	CountCharacters(start, end int) int
}

// Geometry converts positions to horizontal pixel coordinates.
type Geometry interface {
	PointXFromPosition(pos int) int
	TextWidth(s string) int
	// TabWidth is the default tab size in blanks.
	TabWidth() int
}

// TabStops manipulates per-line custom tab stops.
type TabStops interface {
	// GetNextTabStop returns the first custom stop strictly right of x,
	// or 0 when there is none.
	GetNextTabStop(line, x int) int
	ClearTabStops(line int)
	AddTabStop(line, x int)
}

// Selection exposes the host's selections, including virtual space.
type Selection interface {
	SelectionMode() SelectionMode
	Selections() int
	MainSelection() int
	SelectionEmpty() bool
	SelectionNAnchor(i int) int
	SelectionNCaret(i int) int
	SelectionNAnchorVirtualSpace(i int) int
	SelectionNCaretVirtualSpace(i int) int
	SelectionNStart(i int) int
	SelectionNEnd(i int) int
	SelectionNStartVirtualSpace(i int) int
	SelectionNEndVirtualSpace(i int) int
	SetSelectionNAnchor(i, pos, vs int)
	SetSelectionNCaret(i, pos, vs int)

	// SetSelection replaces all selections with one stream selection.
	SetSelection(anchor, caret int)
	// AddSelection adds a stream selection.
	AddSelection(anchor, caret int)
	// SetRectangularSelection replaces all selections with a block.
	SetRectangularSelection(anchor, anchorVS, caret, caretVS int)
}

// Editor changes text. Replace calls between BeginUndoAction and
// EndUndoAction are undone as one step.
type Editor interface {
	Replace(start, end int, text string) error
	BeginUndoAction()
	EndUndoAction()
}

// Viewport describes the visible lines.
type Viewport interface {
	FirstVisibleLine() int
	LinesOnScreen() int
}

// Indicators stores the search region marker. Values are 0 or 1.
type Indicators interface {
	IndicatorFill(start, end int)
	IndicatorClear(start, end int)
	IndicatorValueAt(pos int) int
	// IndicatorStart returns the start of the run of equal values containing pos.
	IndicatorStart(pos int) int
	// IndicatorEnd returns the end of the run of equal values containing pos.
	IndicatorEnd(pos int) int
}

// ModificationType identifies an edit notification.
type ModificationType int

const (
	InsertText ModificationType = 1 << iota
	BeforeDelete
	DeleteText
)

// Modification is delivered to subscribers when text changes.
type Modification struct {
	Type       ModificationType
	Position   int
	Length     int
	LinesAdded int
}

// Notifier delivers modification notifications.
type Notifier interface {
	Subscribe(fn func(Modification))
}

// Host is everything the column tools need from an editor.
type Host interface {
	Text
	Geometry
	TabStops
	Selection
	Editor
	Viewport
	Indicators
}
