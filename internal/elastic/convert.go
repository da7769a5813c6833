package elastic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pstuifzand/tui-columns/internal/host"
)

// TabsToSpaces replaces every tab in the selection, or in the whole
// document when nothing is selected, with the number of blanks that fills
// the space it currently occupies. The change is one undo action.
func (s *State) TabsToSpaces(ctx context.Context) error {
	h := s.h
	var spans []host.Span
	if h.SelectionEmpty() {
		spans = append(spans, host.Span{Start: 0, End: h.Length()})
	} else {
		for i := 0; i < h.Selections(); i++ {
			spans = append(spans, host.Span{Start: h.SelectionNStart(i), End: h.SelectionNEnd(i)})
		}
		sort.Slice(spans, func(a, b int) bool { return spans[a].Start > spans[b].Start })
	}

	if s.settings.Enabled {
		first := h.LineFromPosition(spans[len(spans)-1].Start)
		last := h.LineFromPosition(spans[0].End)
		if s.analysisRequired {
			if err := Run(ctx, s.Analyze()); err != nil {
				return err
			}
		}
		if err := Run(ctx, s.Apply(first, last)); err != nil {
			return err
		}
	}

	blank := h.TextWidth(" ")
	h.BeginUndoAction()
	for _, span := range spans {
		text := h.TextRange(span.Start, span.End)
		if !strings.Contains(text, "\t") {
			continue
		}
		var b strings.Builder
		for i := 0; i < len(text); i++ {
			if text[i] != '\t' {
				b.WriteByte(text[i])
				continue
			}
			width := h.PointXFromPosition(span.Start+i+1) - h.PointXFromPosition(span.Start+i)
			b.WriteString(strings.Repeat(" ", host.BlankCount(width, blank)))
		}
		if err := h.Replace(span.Start, span.End, b.String()); err != nil {
			h.EndUndoAction()
			return fmt.Errorf("tabs to spaces: %w", err)
		}
	}
	h.EndUndoAction()

	if !s.settings.Enabled {
		return nil
	}
	s.analysisRequired = true
	if err := Run(ctx, s.Analyze()); err != nil {
		return err
	}
	return Run(ctx, s.Apply(-1, -1))
}
