package elastic

import (
	"context"
	"log"
	"strings"
	"time"
)

// BatchLines is the number of lines a job handles per step.
const BatchLines = 100

// ProgressThreshold is the projected remaining time above which callers
// should show progress.
const ProgressThreshold = 2 * time.Second

// Progress describes a job after a step.
type Progress struct {
	Done      bool
	Processed int
	Total     int
	// Remaining is extrapolated from the throughput so far.
	Remaining time.Duration
}

// Job is a resumable unit of layout work. Each Step processes one batch;
// a caller may stop between steps and resume later without repeating
// completed batches.
type Job interface {
	Step() Progress
}

// Run steps j until it completes or ctx is cancelled.
func Run(ctx context.Context, j Job) error {
	return RunWithProgress(ctx, j, nil)
}

// RunWithProgress steps j to completion, calling report after each step
// whose projected remaining time exceeds ProgressThreshold.
func RunWithProgress(ctx context.Context, j Job, report func(Progress)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := j.Step()
		if p.Done {
			return nil
		}
		if report != nil && p.Remaining > ProgressThreshold {
			report(p)
		}
	}
}

type meter struct {
	started   time.Time
	processed int
	total     int
}

func (m *meter) progress(done bool) Progress {
	p := Progress{Done: done, Processed: m.processed, Total: m.total}
	if m.processed > 0 && m.total > m.processed {
		elapsed := time.Since(m.started)
		p.Remaining = time.Duration(float64(elapsed) * float64(m.total-m.processed) / float64(m.processed))
	}
	return p
}

// AnalyzeJob rebuilds the layout tree.
type AnalyzeJob struct {
	s     *State
	next  int
	edits int
	done  bool
	meter meter

	digitWidth int
	tabGap     int
	tabInd     int
	tabMin     int
}

// Analyze starts a full measurement of the document.
func (s *State) Analyze() *AnalyzeJob {
	j := &AnalyzeJob{s: s}
	j.restart()
	return j
}

func (j *AnalyzeJob) restart() {
	s := j.s
	s.hint.valid = false
	s.tree.Reset()
	j.next = 0
	j.edits = s.edits
	j.meter = meter{started: time.Now(), total: s.h.LineCount()}
	j.digitWidth = s.h.TextWidth("0")
	j.tabGap = s.tabGap()
	j.tabInd = s.blankWidth * s.indentTabSize()
	j.tabMin = j.tabInd
	if s.settings.LeadingTabsIndent {
		j.tabMin = 0
	}
}

// Step measures the next batch of lines. Edits made since the previous
// step restart the analysis.
func (j *AnalyzeJob) Step() Progress {
	if j.done {
		return j.meter.progress(true)
	}
	if j.edits != j.s.edits {
		j.restart()
	}
	total := j.s.h.LineCount()
	j.meter.total = total
	end := min(j.next+BatchLines, total)
	for line := j.next; line < end; line++ {
		j.line(line)
	}
	j.meter.processed += end - j.next
	j.next = end
	if j.next < total {
		return j.meter.progress(false)
	}
	j.done = true
	j.s.analysisRequired = false
	j.s.dirty.Resize(total)
	log.Printf("elastic: analyzed %d lines into %d blocks in %v", total, j.s.tree.Len(), time.Since(j.meter.started))
	return j.meter.progress(true)
}

func (j *AnalyzeJob) line(line int) {
	s := j.s
	h := s.h
	begin := h.PositionFromLine(line)
	end := h.LineEndPosition(line)
	if begin == end {
		return
	}
	text := h.TextRange(begin, end)
	if s.settings.TreatEOLAsTab {
		text += "\t"
	}
	from := 0
	if s.settings.LeadingTabsIndent {
		from = strings.IndexFunc(text, func(r rune) bool { return r != '\t' })
		if from < 0 {
			return
		}
	}
	indentSize := from * j.tabInd
	parent := -1
	for {
		k := strings.IndexByte(text[from:], '\t')
		if k < 0 {
			break
		}
		tab := from + k
		kids := s.tree.Children(parent)
		var b int
		if len(kids) == 0 || (!s.settings.LineUpAll && s.tree.Block(kids[len(kids)-1]).LastLine < line-1) {
			b = s.tree.add(parent, line, j.tabMin)
		} else {
			b = kids[len(kids)-1]
		}
		blk := s.tree.Block(b)
		blk.LastLine = line
		var width int
		if s.assumeMonospace {
			width = h.CountCharacters(begin+from, begin+min(tab, end-begin)) * j.digitWidth
		} else {
			width = h.PointXFromPosition(begin+min(tab, end-begin)) - h.PointXFromPosition(begin+from)
		}
		width += j.tabGap + indentSize
		indentSize = 0
		if width > blk.Width {
			blk.Width = width
		}
		from = tab + 1
		parent = b
	}
}

// ApplyJob installs tab stops computed from the tree. When widths were
// measured by character count, a measuring pass over the range first
// widens every block whose content overflows, so stops are installed once
// with their final widths.
type ApplyJob struct {
	s         *State
	first     int
	last      int
	next      int
	measuring bool
	done      bool
	meter     meter
}

// Apply starts installing tab stops on lines first through last. A
// negative first selects the visible lines; a negative last means the end
// of the document. Lines whose stops are already current are skipped.
func (s *State) Apply(first, last int) *ApplyJob {
	h := s.h
	count := h.LineCount()
	if first < 0 {
		first = h.FirstVisibleLine()
		last = first + h.LinesOnScreen()
	}
	if last < 0 || last >= count {
		last = count - 1
	}
	if s.dirty.Len() != count {
		s.dirty.Resize(count)
	}
	lines := max(last-first+1, 0)
	j := &ApplyJob{
		s:         s,
		first:     first,
		last:      last,
		next:      first,
		measuring: s.assumeMonospace,
		meter:     meter{started: time.Now(), total: lines},
	}
	if j.measuring {
		j.meter.total += lines
	}
	return j
}

// Step handles the next batch of the measuring pass, then of the
// installing pass.
func (j *ApplyJob) Step() Progress {
	if j.done {
		return j.meter.progress(true)
	}
	if j.s.analysisRequired || !j.s.settings.Enabled {
		j.done = true
		return j.meter.progress(true)
	}
	end := min(j.next+BatchLines, j.last+1)
	for line := j.next; line < end; line++ {
		if j.s.dirty.Done(line) {
			continue
		}
		if j.measuring {
			j.s.measureLine(line)
		} else {
			j.s.applyLine(line)
		}
	}
	j.meter.processed += max(end-j.next, 0)
	j.next = end
	if j.next <= j.last {
		return j.meter.progress(false)
	}
	if j.measuring {
		j.measuring = false
		j.next = j.first
		return j.meter.progress(false)
	}
	j.done = true
	return j.meter.progress(true)
}

// linePath walks the blocks of line. It returns the blocks holding the
// cell before each tab, the byte offsets of those tabs, the number of
// leading indentation tabs, and the block of the text after the last tab.
func (s *State) linePath(root int, line int, text string) (blocks, offsets []int, leading, last int) {
	if s.settings.LeadingTabsIndent {
		for leading < len(text) && text[leading] == '\t' {
			leading++
		}
	}
	b := root
	for at := leading; ; {
		k := strings.IndexByte(text[at:], '\t')
		if k < 0 {
			break
		}
		at += k
		blocks = append(blocks, b)
		offsets = append(offsets, at)
		at++
		next := s.tree.Find(b, line)
		if next < 0 {
			break
		}
		b = next
	}
	return blocks, offsets, leading, b
}

// measureLine widens the blocks of line to the pixel width of its cells.
// The width of a cell does not depend on the stops before it, so this
// runs before any stop is installed.
func (s *State) measureLine(line int) {
	h := s.h
	root := s.tree.Find(-1, line)
	if root < 0 {
		return
	}
	start := h.PositionFromLine(line)
	end := h.LineEndPosition(line)
	if start == end {
		return
	}
	text := h.TextRange(start, end)
	blocks, offsets, leading, last := s.linePath(root, line, text)
	if s.settings.TreatEOLAsTab && len(s.tree.Block(last).Children) > 0 {
		blocks = append(blocks, last)
		offsets = append(offsets, len(text))
	}
	tabGap := s.tabGap()
	from := leading
	indent := leading * s.blankWidth * s.indentTabSize()
	for i, b := range blocks {
		width := h.PointXFromPosition(start+offsets[i]) - h.PointXFromPosition(start+from) + tabGap + indent
		s.widen(b, width)
		indent = 0
		from = offsets[i] + 1
	}
}

// applyLine installs the stops for one line.
func (s *State) applyLine(line int) {
	h := s.h
	leadingIndent := s.blankWidth * s.indentTabSize()

	root := s.tree.Find(-1, line)
	if root < 0 {
		s.clearStops(line)
		s.dirty.SetDone(line)
		return
	}
	start := h.PositionFromLine(line)
	end := h.LineEndPosition(line)
	if start == end {
		s.dirty.SetDone(line)
		return
	}
	text := h.TextRange(start, end)
	blocks, _, leading, _ := s.linePath(root, line, text)

	tabs := make([]int, 0, leading+len(blocks))
	for i := 0; i < leading; i++ {
		tabs = append(tabs, (i+1)*leadingIndent)
	}
	stop := 0
	for _, b := range blocks {
		stop += s.tree.Block(b).Width
		tabs = append(tabs, stop)
	}

	switch {
	case len(blocks) == 0:
		s.clearStops(line)
	case !s.stopsMatch(line, tabs):
		h.ClearTabStops(line)
		for _, x := range tabs {
			h.AddTabStop(line, x)
		}
	}
	s.dirty.SetDone(line)
}

// stopsMatch reports whether the host already has exactly tabs on line.
func (s *State) stopsMatch(line int, tabs []int) bool {
	x := 0
	for _, want := range tabs {
		x = s.h.GetNextTabStop(line, x)
		if x != want {
			return false
		}
	}
	return s.h.GetNextTabStop(line, x) == 0
}
