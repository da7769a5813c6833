package elastic

import "sort"

// Block is one node of the tab layout tree: the width of one tab-delimited
// column over a run of lines. Its children describe the next column for
// lines within the run.
type Block struct {
	FirstLine int
	LastLine  int
	Width     int
	Children  []int
}

// Tree stores blocks in an arena and refers to them by index.
type Tree struct {
	blocks []Block
	roots  []int
}

// Reset empties the tree, keeping its storage.
func (t *Tree) Reset() {
	t.blocks = t.blocks[:0]
	t.roots = t.roots[:0]
}

// Len returns the number of blocks.
func (t *Tree) Len() int {
	return len(t.blocks)
}

// Block returns the block with index i.
func (t *Tree) Block(i int) *Block {
	return &t.blocks[i]
}

// Children returns the blocks under parent, or the roots when parent is -1.
func (t *Tree) Children(parent int) []int {
	if parent < 0 {
		return t.roots
	}
	return t.blocks[parent].Children
}

func (t *Tree) add(parent, line, width int) int {
	i := len(t.blocks)
	t.blocks = append(t.blocks, Block{FirstLine: line, LastLine: line, Width: width})
	if parent < 0 {
		t.roots = append(t.roots, i)
	} else {
		t.blocks[parent].Children = append(t.blocks[parent].Children, i)
	}
	return i
}

// Widen raises the width of block b to at least width and reports whether
// it changed.
func (t *Tree) Widen(b, width int) bool {
	blk := &t.blocks[b]
	if width <= blk.Width {
		return false
	}
	blk.Width = width
	return true
}

// Find returns the child of parent whose line range contains line, or -1.
func (t *Tree) Find(parent, line int) int {
	kids := t.Children(parent)
	k := sort.Search(len(kids), func(k int) bool { return t.blocks[kids[k]].LastLine >= line })
	if k < len(kids) && t.blocks[kids[k]].FirstLine <= line {
		return kids[k]
	}
	return -1
}

// Path returns the blocks covering line from the root down, following at
// most depth levels.
func (t *Tree) Path(line, depth int) []int {
	var path []int
	parent := -1
	for len(path) < depth {
		b := t.Find(parent, line)
		if b < 0 {
			break
		}
		path = append(path, b)
		parent = b
	}
	return path
}
