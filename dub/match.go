package dub

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrDivisionTooFine = errors.New("division finer than the step size")

// matchItem selects notes at one division of the bar. Level 0 is the beat,
// each following level halves the note length.
type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
	String() string
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

func (r rangeMatch) String() string {
	if r == matchAll {
		return "*"
	}
	return fmt.Sprintf("%d:%d", r.start, r.end)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

func (l listMatch) String() string {
	s := make([]string, len(l))
	for i, n := range l {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}

// String formats the expression the way it is written after the quote.
func (m MatchExpr) String() string {
	var b strings.Builder
	level := 0
	for i, item := range m.matchers {
		if i > 0 {
			b.WriteString(strings.Repeat("/", item.level-level))
		}
		level = item.level
		b.WriteString(item.matcher.String())
	}
	return b.String()
}

// EvalMatchExpr expands expr into one bar of steps in the given time
// signature. A step is 1 when every level of the expression selects it.
func EvalMatchExpr(expr MatchExpr, numerator, denominator, stepSize int) ([]int, error) {
	if numerator < 1 || denominator < 1 || stepSize < denominator {
		return nil, fmt.Errorf("invalid bar %d/%d with step size %d", numerator, denominator, stepSize)
	}
	steps := make([]int, stepSize/denominator*numerator)
	for i := range steps {
		steps[i] = 1
	}
	finest := expr.finest()

	for _, item := range expr.matchers {
		division := denominator << item.level
		if division > stepSize {
			return nil, fmt.Errorf("%w: 1/%d with step size %d", ErrDivisionTooFine, division, stepSize)
		}
		width := stepSize / division
		perBeat := division / denominator

		for n, start := 0, 0; start < len(steps); n, start = n+1, start+width {
			// notes are numbered from 1 within their beat, or within the bar
			// for the beat level itself
			num := n + 1
			if perBeat > 1 {
				num = n%perBeat + 1
			}
			if !item.matcher.match(num) {
				clearSteps(steps[start:min(start+width, len(steps))])
				continue
			}
			// only the finest level decides which step inside a note sounds
			if item.level == finest {
				clearSteps(steps[start+1 : min(start+width, len(steps))])
			}
		}
	}
	return steps, nil
}

func (m MatchExpr) finest() int {
	if len(m.matchers) == 0 {
		return 0
	}
	return m.matchers[len(m.matchers)-1].level
}

func clearSteps(s []int) {
	for i := range s {
		s[i] = 0
	}
}
