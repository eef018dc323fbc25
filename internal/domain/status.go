package domain

import "fmt"

// Status is the discrete safety classification of a beach at a point in time.
type Status string

const (
	StatusSafe      Status = "safe"
	StatusCaution   Status = "caution"
	StatusDangerous Status = "dangerous"
	StatusUnknown   Status = "unknown"
)

// severityRank orders statuses for worst-of comparisons. Unknown ranks
// lowest so that any measured classification outranks absence of data.
var severityRank = map[Status]int{
	StatusUnknown:   0,
	StatusSafe:      1,
	StatusCaution:   2,
	StatusDangerous: 3,
}

// displayColor maps each status to the dashboard color it renders as.
var displayColor = map[Status]string{
	StatusSafe:      "green",
	StatusCaution:   "yellow",
	StatusDangerous: "red",
	StatusUnknown:   "gray",
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Color returns the display color for the status ("green", "yellow",
// "red", "gray"), or "gray" for an unrecognized value.
func (s Status) Color() string {
	if c, ok := displayColor[s]; ok {
		return c
	}
	return displayColor[StatusUnknown]
}

// WorseThan reports whether s is strictly higher severity than other.
func (s Status) WorseThan(other Status) bool {
	return severityRank[s] > severityRank[other]
}

// WorstStatus returns the highest-severity status among the arguments.
// With no arguments it returns StatusUnknown.
func WorstStatus(statuses ...Status) Status {
	worst := StatusUnknown
	for _, s := range statuses {
		if s.WorseThan(worst) {
			worst = s
		}
	}
	return worst
}

// ParseStatus converts a string to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("parse status: unknown status %q", s)
	}
	return st, nil
}
