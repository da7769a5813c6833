package elastic

// DirtyLineSet records which lines have up-to-date tab stops.
type DirtyLineSet struct {
	current []bool
}

// Resize sets the line count and marks every line as needing work.
func (d *DirtyLineSet) Resize(lines int) {
	if cap(d.current) >= lines {
		d.current = d.current[:lines]
	} else {
		d.current = make([]bool, lines)
	}
	clear(d.current)
}

// Len returns the tracked line count.
func (d *DirtyLineSet) Len() int {
	return len(d.current)
}

// Done reports whether line is up to date.
func (d *DirtyLineSet) Done(line int) bool {
	return line >= 0 && line < len(d.current) && d.current[line]
}

// SetDone marks line as up to date.
func (d *DirtyLineSet) SetDone(line int) {
	if line >= 0 && line < len(d.current) {
		d.current[line] = true
	}
}

// Mark flags lines first through last as needing work.
func (d *DirtyLineSet) Mark(first, last int) {
	first = max(first, 0)
	last = min(last, len(d.current)-1)
	for i := first; i <= last; i++ {
		d.current[i] = false
	}
}

// Pending counts the lines needing work.
func (d *DirtyLineSet) Pending() int {
	n := 0
	for _, ok := range d.current {
		if !ok {
			n++
		}
	}
	return n
}
