// Package weekset converts between compact week recurrences (start week, end
// week, parity) and explicit sets of term week numbers.
package weekset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Parity selects which weeks inside a range are active.
type Parity string

const (
	ParityAll  Parity = "ALL"
	ParityOdd  Parity = "ODD"
	ParityEven Parity = "EVEN"
)

var (
	// ErrInvalidRange reports a start/end pair outside the term or reversed.
	ErrInvalidRange = errors.New("invalid week range")
	// ErrEmptyWeekSet reports a recurrence that implies no week at all.
	ErrEmptyWeekSet = errors.New("week set is empty")
	// ErrInvalidParity reports a parity outside ALL/ODD/EVEN.
	ErrInvalidParity = errors.New("invalid week parity")
)

// ParseParity normalises raw input into a Parity.
func ParseParity(raw string) (Parity, error) {
	p := Parity(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidParity, raw)
	}
	return p, nil
}

// Valid reports whether p is one of the known parities.
func (p Parity) Valid() bool {
	switch p {
	case ParityAll, ParityOdd, ParityEven:
		return true
	}
	return false
}

// Matches reports whether week is active under p.
func (p Parity) Matches(week int) bool {
	switch p {
	case ParityAll:
		return true
	case ParityOdd:
		return week%2 != 0
	case ParityEven:
		return week%2 == 0
	}
	return false
}

// step is the distance between two consecutive active weeks.
func (p Parity) step() int {
	switch p {
	case ParityOdd, ParityEven:
		return 2
	}
	return 1
}

// Segment is one compact recurrence record.
type Segment struct {
	StartWeek int    `json:"start_week"`
	EndWeek   int    `json:"end_week"`
	Parity    Parity `json:"parity"`
}

// Weeks expands the segment.
func (s Segment) Weeks() []int {
	return Expand(s.StartWeek, s.EndWeek, s.Parity)
}

// Validate checks the segment against a term of totalWeeks weeks. A
// non-positive totalWeeks skips the upper bound check.
func (s Segment) Validate(totalWeeks int) error {
	if !s.Parity.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidParity, s.Parity)
	}
	if s.StartWeek < 1 || s.StartWeek > s.EndWeek {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, s.StartWeek, s.EndWeek)
	}
	if totalWeeks > 0 && s.EndWeek > totalWeeks {
		return fmt.Errorf("%w: %d-%d exceeds %d weeks", ErrInvalidRange, s.StartWeek, s.EndWeek, totalWeeks)
	}
	if len(s.Weeks()) == 0 {
		return fmt.Errorf("%w: %d-%d %s", ErrEmptyWeekSet, s.StartWeek, s.EndWeek, s.Parity)
	}
	return nil
}

// String renders the segment as "1-16 ALL".
func (s Segment) String() string {
	return fmt.Sprintf("%d-%d %s", s.StartWeek, s.EndWeek, s.Parity)
}

// Expand returns the ascending weeks w with start <= w <= end matching parity.
func Expand(start, end int, parity Parity) []int {
	if start > end {
		return nil
	}
	weeks := make([]int, 0, end-start+1)
	for w := start; w <= end; w++ {
		if parity.Matches(w) {
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// Compress greedily rewrites weeks as the fewest left-to-right segments.
// At each step the consecutive run starting at the smallest remaining week
// is compared with the same-parity run (step 2) from that week; the longer
// one is emitted and ties go to ALL. A lone week is therefore always ALL,
// even when it is the tail of an odd or even run: {1,3,7} compresses to
// 1-3 ODD and 7-7 ALL, never 7-7 ODD. Both cover the same weeks, so callers
// must compare expanded weeks rather than parities.
func Compress(weeks []int) []Segment {
	remaining := toSet(weeks)
	if len(remaining) == 0 {
		return nil
	}

	var segments []Segment
	for len(remaining) > 0 {
		first := minKey(remaining)

		countAll := 0
		for remaining[first+countAll] {
			countAll++
		}
		countParity := 0
		for remaining[first+2*countParity] {
			countParity++
		}

		var seg Segment
		if countAll >= countParity {
			seg = Segment{StartWeek: first, EndWeek: first + countAll - 1, Parity: ParityAll}
		} else {
			parity := ParityEven
			if first%2 != 0 {
				parity = ParityOdd
			}
			seg = Segment{StartWeek: first, EndWeek: first + 2*(countParity-1), Parity: parity}
		}
		for w := seg.StartWeek; w <= seg.EndWeek; w += seg.Parity.step() {
			delete(remaining, w)
		}
		segments = append(segments, seg)
	}
	return segments
}

// ExpandAll unions the weeks of every segment.
func ExpandAll(segments []Segment) []int {
	var weeks []int
	for _, seg := range segments {
		weeks = append(weeks, seg.Weeks()...)
	}
	return Normalize(weeks)
}

// Normalize sorts weeks ascending and drops duplicates.
func Normalize(weeks []int) []int {
	if len(weeks) == 0 {
		return nil
	}
	set := toSet(weeks)
	out := make([]int, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// Difference returns the weeks of a that are not in b.
func Difference(a, b []int) []int {
	exclude := toSet(b)
	var out []int
	for _, w := range Normalize(a) {
		if !exclude[w] {
			out = append(out, w)
		}
	}
	return out
}

// Union returns the normalized union of a and b.
func Union(a, b []int) []int {
	merged := make([]int, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return Normalize(merged)
}

// Intersect returns the weeks present in both a and b.
func Intersect(a, b []int) []int {
	keep := toSet(b)
	var out []int
	for _, w := range Normalize(a) {
		if keep[w] {
			out = append(out, w)
		}
	}
	return out
}

// IsSubset reports whether every week of sub is in super.
func IsSubset(sub, super []int) bool {
	set := toSet(super)
	for _, w := range sub {
		if !set[w] {
			return false
		}
	}
	return true
}

func toSet(weeks []int) map[int]bool {
	set := make(map[int]bool, len(weeks))
	for _, w := range weeks {
		set[w] = true
	}
	return set
}

func minKey(set map[int]bool) int {
	first := true
	var min int
	for k := range set {
		if first || k < min {
			min = k
			first = false
		}
	}
	return min
}
