package main

import (
	"fmt"
	"strings"

	"dynaf/internal/asp"
)

// Mode is the reasoning mode of a task code.
type Mode int

const (
	// ModeEnumerate lists every extension (EE).
	ModeEnumerate Mode = iota + 1
	// ModeSome prints one extension, or NO when none exists (SE).
	ModeSome
	// ModeCount prints the number of extensions (CE).
	ModeCount
)

func (m Mode) code() string {
	switch m {
	case ModeEnumerate:
		return "EE"
	case ModeSome:
		return "SE"
	case ModeCount:
		return "CE"
	default:
		return "??"
	}
}

// Task is a parsed problem code such as ee-co or se-st-d.
type Task struct {
	Mode      Mode
	Semantics asp.Semantics
	Dynamic   bool
}

func (t Task) String() string {
	s := strings.ToLower(t.Mode.code() + "-" + t.Semantics.Code())
	if t.Dynamic {
		s += "-d"
	}
	return s
}

// ParseTask parses a problem code of the shape MODE-SEM[-d], case
// insensitive.
func ParseTask(code string) (Task, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(code)), "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Task{}, fmt.Errorf("malformed task code %q", code)
	}

	var t Task
	switch parts[0] {
	case "ee":
		t.Mode = ModeEnumerate
	case "se":
		t.Mode = ModeSome
	case "ce":
		t.Mode = ModeCount
	default:
		return Task{}, fmt.Errorf("unknown reasoning mode %q in task %q", parts[0], code)
	}

	sem, err := asp.ParseSemantics(parts[1])
	if err != nil {
		return Task{}, fmt.Errorf("task %q: %w", code, err)
	}
	t.Semantics = sem

	if len(parts) == 3 {
		if parts[2] != "d" {
			return Task{}, fmt.Errorf("unknown task suffix %q in %q", parts[2], code)
		}
		t.Dynamic = true
	}
	return t, nil
}

// SupportedTasks lists every problem code, static and dynamic.
func SupportedTasks() []string {
	var out []string
	for _, m := range []Mode{ModeCount, ModeEnumerate, ModeSome} {
		for _, sem := range asp.All() {
			base := strings.ToLower(m.code() + "-" + sem.Code())
			out = append(out, base, base+"-d")
		}
	}
	return out
}
