package trackfile

import (
	"fmt"
	"sort"
	"strings"
)

// Error is a problem found at one line of a track file. Line is 1-based;
// zero means the problem is not tied to a line.
type Error struct {
	Line int    `json:"line"`
	Msg  string `json:"message"`
	Text string `json:"text,omitempty"`
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ErrorList is every error found in one parse, ordered by line.
type ErrorList []*Error

// Add appends an error.
func (l *ErrorList) Add(line int, text, msg string) {
	*l = append(*l, &Error{Line: line, Msg: msg, Text: strings.TrimSpace(text)})
}

func (l ErrorList) Len() int      { return len(l) }
func (l ErrorList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l ErrorList) Less(i, j int) bool {
	return l[i].Line < l[j].Line
}

// Sort orders the list by line, keeping discovery order within a line.
func (l ErrorList) Sort() {
	sort.Stable(l)
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Err returns nil for an empty list and the list itself otherwise.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
