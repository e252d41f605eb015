// Package reconcile turns raw solver models into extensions and tracks
// how the extension set of a framework shifts across updates.
package reconcile

import (
	"sort"
	"strings"

	"dynaf/internal/solver"
)

// Extension is a set of accepted arguments in canonical form: sorted,
// no duplicates.
type Extension []string

// FromModel canonicalizes a solver model into an Extension.
func FromModel(m solver.Model) Extension {
	seen := make(map[string]struct{}, len(m.Atoms))
	ext := make(Extension, 0, len(m.Atoms))
	for _, a := range m.Atoms {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		ext = append(ext, a)
	}
	sort.Strings(ext)
	return ext
}

// Key is a canonical identity for set membership tests. Argument names
// never contain commas, so a comma join is unambiguous.
func (e Extension) Key() string { return strings.Join(e, ",") }

// Contains reports whether the argument is accepted in this extension.
func (e Extension) Contains(arg string) bool {
	i := sort.SearchStrings(e, arg)
	return i < len(e) && e[i] == arg
}

// String renders the extension in the bracketed form front ends print,
// for example "[a,c]".
func (e Extension) String() string { return "[" + strings.Join(e, ",") + "]" }

// Report describes the extension set at one sequence point and how it
// differs from the previous one.
type Report struct {
	Seq        uint64
	Extensions []Extension
	Added      []Extension
	Removed    []Extension

	// Collapsed is set when a previously nonempty extension set became
	// empty. Under stable semantics that means the updated framework
	// lost all its models.
	Collapsed bool
}

// Credulous reports whether the argument is accepted in at least one
// extension.
func (r Report) Credulous(arg string) bool {
	for _, e := range r.Extensions {
		if e.Contains(arg) {
			return true
		}
	}
	return false
}

// Skeptical reports whether the argument is accepted in every extension.
// An empty extension set accepts everything vacuously, which callers
// handle through Collapsed.
func (r Report) Skeptical(arg string) bool {
	for _, e := range r.Extensions {
		if !e.Contains(arg) {
			return false
		}
	}
	return true
}

// Reconciler diffs successive extension sets. Model arrival order is
// meaningless, so everything is normalized before comparison. Not safe
// for concurrent use; each session owns one.
type Reconciler struct {
	prev    map[string]Extension
	prevSet bool
}

func New() *Reconciler {
	return &Reconciler{}
}

// Reconcile canonicalizes the models solved at the given sequence point
// and reports the difference against the previous call. The first call
// reports every extension as added.
func (r *Reconciler) Reconcile(seq uint64, models []solver.Model) Report {
	current := make(map[string]Extension, len(models))
	exts := make([]Extension, 0, len(models))
	for _, m := range models {
		e := FromModel(m)
		k := e.Key()
		if _, dup := current[k]; dup {
			continue
		}
		current[k] = e
		exts = append(exts, e)
	}
	sortExtensions(exts)

	rep := Report{Seq: seq, Extensions: exts}
	for _, e := range exts {
		if _, ok := r.prev[e.Key()]; !ok {
			rep.Added = append(rep.Added, e)
		}
	}
	for k, e := range r.prev {
		if _, ok := current[k]; !ok {
			rep.Removed = append(rep.Removed, e)
		}
	}
	sortExtensions(rep.Removed)
	rep.Collapsed = r.prevSet && len(r.prev) > 0 && len(current) == 0

	r.prev = current
	r.prevSet = true
	return rep
}

// Reset forgets the previous sequence point, so the next Reconcile
// behaves like the first. Used after a full recompute on a fresh
// session.
func (r *Reconciler) Reset() {
	r.prev = nil
	r.prevSet = false
}

func sortExtensions(exts []Extension) {
	sort.Slice(exts, func(i, j int) bool {
		if len(exts[i]) != len(exts[j]) {
			return len(exts[i]) < len(exts[j])
		}
		return exts[i].Key() < exts[j].Key()
	})
}
