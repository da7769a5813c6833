package buffer

// IndicatorFill marks [start, end) as part of the search region.
func (d *Document) IndicatorFill(start, end int) {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, start, len(d.text))
	for i := start; i < end; i++ {
		d.indicator[i] = true
	}
}

// IndicatorClear unmarks [start, end).
func (d *Document) IndicatorClear(start, end int) {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, start, len(d.text))
	for i := start; i < end; i++ {
		d.indicator[i] = false
	}
}

// IndicatorValueAt returns 1 if pos is marked.
func (d *Document) IndicatorValueAt(pos int) int {
	if pos < 0 || pos >= len(d.indicator) || !d.indicator[pos] {
		return 0
	}
	return 1
}

// IndicatorStart returns the start of the run of equal values containing pos.
func (d *Document) IndicatorStart(pos int) int {
	pos = clamp(pos, 0, len(d.text))
	v := d.IndicatorValueAt(pos)
	for pos > 0 && d.IndicatorValueAt(pos-1) == v {
		pos--
	}
	return pos
}

// IndicatorEnd returns the end of the run of equal values containing pos.
func (d *Document) IndicatorEnd(pos int) int {
	pos = clamp(pos, 0, len(d.text))
	v := d.IndicatorValueAt(pos)
	for pos < len(d.text) && d.IndicatorValueAt(pos) == v {
		pos++
	}
	return pos
}

// IndicatorRuns returns the marked spans in document order.
func (d *Document) IndicatorRuns() [][2]int {
	var runs [][2]int
	for pos := 0; pos < len(d.text); {
		end := d.IndicatorEnd(pos)
		if d.indicator[pos] {
			runs = append(runs, [2]int{pos, end})
		}
		pos = end
	}
	return runs
}
