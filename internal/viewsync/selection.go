package viewsync

import "sort"

// Range is an inclusive run of consecutive rows.
type Range struct {
	First int
	Last  int
}

// Len returns the number of rows in r.
func (r Range) Len() int { return r.Last - r.First + 1 }

// Ranges collapses rows into sorted, merged runs of consecutive rows.
// Negative rows and duplicates are dropped.
func Ranges(rows []int) []Range {
	if len(rows) == 0 {
		return nil
	}
	sorted := make([]int, 0, len(rows))
	for _, row := range rows {
		if row >= 0 {
			sorted = append(sorted, row)
		}
	}
	sort.Ints(sorted)

	var out []Range
	for _, row := range sorted {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if row <= last.Last+1 {
				if row > last.Last {
					last.Last = row
				}
				continue
			}
		}
		out = append(out, Range{First: row, Last: row})
	}
	return out
}

// Selection is a set of rows stored as merged ranges, so selecting a large
// contiguous block costs one range rather than one entry per row.
type Selection struct {
	ranges []Range
	count  int
}

// NewSelection builds a selection from arbitrary rows.
func NewSelection(rows []int) Selection {
	return SelectionFromRanges(Ranges(rows))
}

// SelectionFromRanges builds a selection from already merged ranges.
func SelectionFromRanges(ranges []Range) Selection {
	s := Selection{ranges: append([]Range(nil), ranges...)}
	for _, r := range s.ranges {
		s.count += r.Len()
	}
	return s
}

// Contains reports whether row is selected.
func (s Selection) Contains(row int) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Last >= row })
	return i < len(s.ranges) && s.ranges[i].First <= row
}

// Len returns the number of selected rows.
func (s Selection) Len() int { return s.count }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return s.count == 0 }

// Ranges returns a copy of the merged ranges.
func (s Selection) Ranges() []Range {
	return append([]Range(nil), s.ranges...)
}

// Rows expands the selection into ascending rows.
func (s Selection) Rows() []int {
	rows := make([]int, 0, s.count)
	for _, r := range s.ranges {
		for row := r.First; row <= r.Last; row++ {
			rows = append(rows, row)
		}
	}
	return rows
}

// Toggle returns a copy with row added or removed.
func (s Selection) Toggle(row int) Selection {
	if row < 0 {
		return s
	}
	rows := s.Rows()
	if !s.Contains(row) {
		return NewSelection(append(rows, row))
	}
	kept := rows[:0]
	for _, r := range rows {
		if r != row {
			kept = append(kept, r)
		}
	}
	return NewSelection(kept)
}

// Clamp drops rows at or beyond n.
func (s Selection) Clamp(n int) Selection {
	if n <= 0 {
		return Selection{}
	}
	var out []Range
	for _, r := range s.ranges {
		if r.First >= n {
			break
		}
		if r.Last >= n {
			r.Last = n - 1
		}
		out = append(out, r)
	}
	return SelectionFromRanges(out)
}
