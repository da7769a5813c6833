// Package buffer is an in-memory editing component implementing host.Host.
//
// A Document stores UTF-8 text with byte positions, measures it with a
// host.Metrics, honours per-line custom tab stops, keeps multiple
// selections with virtual space, one search indicator, grouped undo, and
// notifies subscribers of every insertion and deletion.
package buffer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/host"
	"github.com/rivo/uniseg"
)

// ErrOutOfRange is returned when an edit addresses positions outside the document.
var ErrOutOfRange = errors.New("position out of range")

type selection struct {
	anchor, caret     int
	anchorVS, caretVS int
}

type undoAction struct {
	pos      int
	removed  string
	inserted string
}

// Document is an in-memory text buffer.
type Document struct {
	text       []byte
	lineStarts []int
	metrics    host.Metrics
	tabWidth   int

	tabStops  [][]int
	indicator []bool

	sels []selection
	main int
	mode host.SelectionMode

	firstVisible  int
	linesOnScreen int

	undo       [][]undoAction
	undoDepth  int
	undoActive bool

	listeners []func(host.Modification)
	xcache    map[int][]int
}

// NewDocument creates a document holding text, measured with m.
func NewDocument(text string, m host.Metrics) *Document {
	d := &Document{
		text:          []byte(text),
		metrics:       m,
		tabWidth:      8,
		indicator:     make([]bool, len(text)),
		sels:          []selection{{}},
		linesOnScreen: 50,
		xcache:        make(map[int][]int),
	}
	d.computeLines()
	d.tabStops = make([][]int, len(d.lineStarts))
	return d
}

// String returns the whole text.
func (d *Document) String() string {
	return string(d.text)
}

// SetTabWidth sets the default tab size in blanks.
func (d *Document) SetTabWidth(n int) {
	if n < 1 {
		n = 1
	}
	d.tabWidth = n
	d.invalidate()
}

// SetMetrics replaces the font measurement, as after a font or zoom change.
func (d *Document) SetMetrics(m host.Metrics) {
	d.metrics = m
	d.invalidate()
}

// Metrics returns the current font measurement.
func (d *Document) Metrics() host.Metrics {
	return d.metrics
}

// SetViewport sets the first visible line and the number of lines shown.
func (d *Document) SetViewport(first, count int) {
	d.firstVisible = first
	d.linesOnScreen = count
}

// Subscribe registers fn to receive modification notifications.
func (d *Document) Subscribe(fn func(host.Modification)) {
	d.listeners = append(d.listeners, fn)
}

func (d *Document) notify(m host.Modification) {
	for _, fn := range d.listeners {
		fn(m)
	}
}

func (d *Document) invalidate() {
	d.xcache = make(map[int][]int)
}

func (d *Document) computeLines() {
	d.lineStarts = d.lineStarts[:0]
	d.lineStarts = append(d.lineStarts, 0)
	for i, c := range d.text {
		if c == '\n' {
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
}

// Length returns the document length in bytes.
func (d *Document) Length() int {
	return len(d.text)
}

// LineCount returns the number of lines; an empty document has one line.
func (d *Document) LineCount() int {
	return len(d.lineStarts)
}

// LineFromPosition returns the line containing pos.
func (d *Document) LineFromPosition(pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(d.text) {
		pos = len(d.text)
	}
	return sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > pos }) - 1
}

// PositionFromLine returns the first position of line.
func (d *Document) PositionFromLine(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(d.lineStarts) {
		return len(d.text)
	}
	return d.lineStarts[line]
}

// LineEndPosition returns the position before the line's end-of-line characters.
func (d *Document) LineEndPosition(line int) int {
	if line < 0 {
		return 0
	}
	if line+1 >= len(d.lineStarts) {
		return len(d.text)
	}
	end := d.lineStarts[line+1] - 1
	if end > d.lineStarts[line] && d.text[end-1] == '\r' {
		end--
	}
	return end
}

// TextRange returns the text between start and end, clamped to the document.
func (d *Document) TextRange(start, end int) string {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, start, len(d.text))
	return string(d.text[start:end])
}

// CharAt returns the byte at pos, or 0 outside the document.
func (d *Document) CharAt(pos int) byte {
	if pos < 0 || pos >= len(d.text) {
		return 0
	}
	return d.text[pos]
}

// PositionAfter returns the position after the character at pos.
func (d *Document) PositionAfter(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos >= len(d.text) {
		return len(d.text)
	}
	switch d.text[pos] {
	case '\r':
		if pos+1 < len(d.text) && d.text[pos+1] == '\n' {
			return pos + 2
		}
		return pos + 1
	case '\n', '\t':
		return pos + 1
	}
	end := d.LineEndPosition(d.LineFromPosition(pos))
	if end <= pos {
		return pos + 1
	}
	cluster, _, _, _ := uniseg.FirstGraphemeCluster(d.text[pos:end], -1)
	if len(cluster) == 0 {
		return pos + 1
	}
	return pos + len(cluster)
}

// PositionBefore returns the start of the character before pos.
func (d *Document) PositionBefore(pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(d.text) {
		pos = len(d.text)
	}
	if d.text[pos-1] == '\n' {
		if pos >= 2 && d.text[pos-2] == '\r' {
			return pos - 2
		}
		return pos - 1
	}
	p := d.PositionFromLine(d.LineFromPosition(pos))
	prev := p
	for p < pos {
		prev = p
		p = d.PositionAfter(p)
	}
	return prev
}

// CountCharacters returns the number of user-perceived characters in [start, end).
func (d *Document) CountCharacters(start, end int) int {
	return uniseg.GraphemeClusterCount(d.TextRange(start, end))
}

// Line returns the text of line without its end-of-line characters.
func (d *Document) Line(line int) string {
	return d.TextRange(d.PositionFromLine(line), d.LineEndPosition(line))
}

// Lines returns every line without end-of-line characters.
func (d *Document) Lines() []string {
	lines := make([]string, d.LineCount())
	for i := range lines {
		lines[i] = d.Line(i)
	}
	return lines
}

// PointXFromPosition returns the pixel offset of pos from the start of its line.
func (d *Document) PointXFromPosition(pos int) int {
	pos = clamp(pos, 0, len(d.text))
	line := d.LineFromPosition(pos)
	xs := d.lineXs(line)
	off := pos - d.lineStarts[line]
	if off >= len(xs) {
		return xs[len(xs)-1]
	}
	return xs[off]
}

// lineXs returns the pixel offset of every byte of line, plus the line end.
// Bytes inside a character share the character's starting offset.
func (d *Document) lineXs(line int) []int {
	if xs, ok := d.xcache[line]; ok {
		return xs
	}
	start := d.lineStarts[line]
	end := d.LineEndPosition(line)
	xs := make([]int, end-start+1)
	x := 0
	for p := start; p < end; {
		next := d.PositionAfter(p)
		if next > end {
			next = end
		}
		for i := p; i < next; i++ {
			xs[i-start] = x
		}
		if d.text[p] == '\t' {
			x = d.nextTab(line, x)
		} else {
			x += d.metrics.TextWidth(string(d.text[p:next]))
		}
		p = next
	}
	xs[end-start] = x
	d.xcache[line] = xs
	return xs
}

func (d *Document) nextTab(line, x int) int {
	if stop := d.GetNextTabStop(line, x); stop > 0 {
		return stop
	}
	w := d.tabWidth * d.metrics.TextWidth(" ")
	if w <= 0 {
		return x + 1
	}
	return (x/w + 1) * w
}

// TextWidth measures s.
func (d *Document) TextWidth(s string) int {
	return d.metrics.TextWidth(s)
}

// TabWidth returns the default tab size in blanks.
func (d *Document) TabWidth() int {
	return d.tabWidth
}

// GetNextTabStop returns the first custom tab stop on line greater than x, or 0.
func (d *Document) GetNextTabStop(line, x int) int {
	if line < 0 || line >= len(d.tabStops) {
		return 0
	}
	for _, s := range d.tabStops[line] {
		if s > x {
			return s
		}
	}
	return 0
}

// ClearTabStops removes the custom tab stops of line.
func (d *Document) ClearTabStops(line int) {
	if line < 0 || line >= len(d.tabStops) || d.tabStops[line] == nil {
		return
	}
	d.tabStops[line] = nil
	delete(d.xcache, line)
}

// AddTabStop adds a custom tab stop at x on line.
func (d *Document) AddTabStop(line, x int) {
	if line < 0 || line >= len(d.tabStops) {
		return
	}
	stops := d.tabStops[line]
	i := sort.SearchInts(stops, x)
	if i < len(stops) && stops[i] == x {
		return
	}
	stops = append(stops, 0)
	copy(stops[i+1:], stops[i:])
	stops[i] = x
	d.tabStops[line] = stops
	delete(d.xcache, line)
}

// TabStopsOf returns a copy of the custom tab stops of line.
func (d *Document) TabStopsOf(line int) []int {
	if line < 0 || line >= len(d.tabStops) {
		return nil
	}
	return append([]int(nil), d.tabStops[line]...)
}

// FirstVisibleLine returns the first line shown.
func (d *Document) FirstVisibleLine() int {
	return d.firstVisible
}

// LinesOnScreen returns the number of lines shown.
func (d *Document) LinesOnScreen() int {
	return d.linesOnScreen
}

// Replace replaces [start, end) with text.
func (d *Document) Replace(start, end int, text string) error {
	if start < 0 || end < start || end > len(d.text) {
		return fmt.Errorf("%w: replace [%d, %d) in document of length %d", ErrOutOfRange, start, end, len(d.text))
	}
	if start == end && text == "" {
		return nil
	}
	removed := string(d.text[start:end])
	if removed == text {
		return nil
	}
	d.record(undoAction{pos: start, removed: removed, inserted: text})
	d.replace(start, end, text)
	return nil
}

// InsertText inserts text at pos.
func (d *Document) InsertText(pos int, text string) error {
	return d.Replace(pos, pos, text)
}

func (d *Document) replace(start, end int, text string) {
	line := d.LineFromPosition(start)
	if end > start {
		removed := d.text[start:end]
		lines := strings.Count(string(removed), "\n")
		d.notify(host.Modification{Type: host.BeforeDelete, Position: start, Length: end - start, LinesAdded: -lines})

		d.text = append(d.text[:start], d.text[end:]...)
		d.indicator = append(d.indicator[:start], d.indicator[end:]...)
		if lines > 0 {
			d.tabStops = append(d.tabStops[:line+1], d.tabStops[line+1+lines:]...)
		}
		for i := range d.sels {
			s := &d.sels[i]
			s.anchor = moveForDelete(s.anchor, start, end)
			s.caret = moveForDelete(s.caret, start, end)
		}
		d.computeLines()
		d.invalidate()
		d.notify(host.Modification{Type: host.DeleteText, Position: start, Length: end - start, LinesAdded: -lines})
	}
	if text != "" {
		n := len(text)
		lines := strings.Count(text, "\n")

		d.text = append(d.text[:start], append([]byte(text), d.text[start:]...)...)
		fill := start > 0 && d.indicator[start-1]
		ins := make([]bool, n)
		for i := range ins {
			ins[i] = fill
		}
		d.indicator = append(d.indicator[:start], append(ins, d.indicator[start:]...)...)
		if lines > 0 {
			added := make([][]int, lines)
			d.tabStops = append(d.tabStops[:line+1], append(added, d.tabStops[line+1:]...)...)
		}
		for i := range d.sels {
			s := &d.sels[i]
			if s.anchor > start {
				s.anchor += n
			}
			if s.caret > start {
				s.caret += n
			}
		}
		d.computeLines()
		d.invalidate()
		d.notify(host.Modification{Type: host.InsertText, Position: start, Length: n, LinesAdded: lines})
	}
}

func moveForDelete(p, start, end int) int {
	switch {
	case p >= end:
		return p - (end - start)
	case p > start:
		return start
	default:
		return p
	}
}

func (d *Document) record(a undoAction) {
	if d.undoActive {
		return
	}
	if d.undoDepth > 0 && len(d.undo) > 0 {
		last := len(d.undo) - 1
		d.undo[last] = append(d.undo[last], a)
		return
	}
	d.undo = append(d.undo, []undoAction{a})
}

// BeginUndoAction starts a group of edits undone together.
func (d *Document) BeginUndoAction() {
	if d.undoDepth == 0 {
		d.undo = append(d.undo, nil)
	}
	d.undoDepth++
}

// EndUndoAction ends a group started with BeginUndoAction.
func (d *Document) EndUndoAction() {
	if d.undoDepth == 0 {
		return
	}
	d.undoDepth--
	if d.undoDepth == 0 && len(d.undo) > 0 && len(d.undo[len(d.undo)-1]) == 0 {
		d.undo = d.undo[:len(d.undo)-1]
	}
}

// CanUndo reports whether there is an edit to undo.
func (d *Document) CanUndo() bool {
	return len(d.undo) > 0 && d.undoDepth == 0
}

// Undo reverts the most recent group of edits.
func (d *Document) Undo() bool {
	if !d.CanUndo() {
		return false
	}
	group := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.undoActive = true
	defer func() { d.undoActive = false }()
	caret := 0
	for i := len(group) - 1; i >= 0; i-- {
		a := group[i]
		d.replace(a.pos, a.pos+len(a.inserted), a.removed)
		caret = a.pos + len(a.removed)
	}
	d.SetSelection(caret, caret)
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
