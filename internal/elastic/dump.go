package elastic

import (
	"github.com/davecgh/go-spew/spew"
)

type dumpBlock struct {
	Lines    [2]int
	Width    int
	Children []dumpBlock
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump renders the layout tree for debugging.
func (s *State) Dump() string {
	var build func(parent int) []dumpBlock
	build = func(parent int) []dumpBlock {
		var out []dumpBlock
		for _, b := range s.tree.Children(parent) {
			blk := s.tree.Block(b)
			out = append(out, dumpBlock{
				Lines:    [2]int{blk.FirstLine, blk.LastLine},
				Width:    blk.Width,
				Children: build(b),
			})
		}
		return out
	}
	return dumper.Sdump(build(-1))
}
