package state

import "github.com/heroiclabs/nakama-common/runtime"

// SliceFunc computes a widget slice value from the full document.
// Implementations must be total: when upstream fields are missing they return
// their documented empty view instead of failing.
type SliceFunc func(doc Document) any

// SliceSpec couples a named slice computation with the document fields it
// depends on. The slice value is a pure function of those fields and is never
// mutated outside the deriver.
type SliceSpec struct {
	Name    string
	Deps    []string
	Compute SliceFunc
}

// Deriver recomputes widget slices whose declared dependencies changed.
type Deriver struct {
	logger runtime.Logger
	specs  map[string][]SliceSpec
}

// NewDeriver constructs an empty deriver.
func NewDeriver(logger runtime.Logger) *Deriver {
	return &Deriver{
		logger: logger,
		specs:  make(map[string][]SliceSpec),
	}
}

// RegisterSlices declares the slices derived for a module. Intended to be
// called once per module at composition time.
func (d *Deriver) RegisterSlices(module string, specs ...SliceSpec) {
	d.specs[module] = append(d.specs[module], specs...)
}

// Recompute evaluates every slice whose dependency set intersects the changed
// fields and writes the result into the merged document. Slices without a
// changed dependency keep their last value: stale is expected, it reflects
// the last known good state for fields that did not change. Runs after the
// raw merge and before the commit is published, so slices always see a fully
// merged document.
func (d *Deriver) Recompute(module string, merged Document, changed map[string]struct{}) {
	for _, spec := range d.specs[module] {
		if !depsChanged(spec.Deps, changed) {
			continue
		}
		merged[spec.Name] = d.compute(module, spec, merged)
	}
}

// RecomputeAll evaluates every slice for the module, used on forced updates
// where the changed set cannot be trusted to name every stale dependency.
func (d *Deriver) RecomputeAll(module string, merged Document) {
	for _, spec := range d.specs[module] {
		merged[spec.Name] = d.compute(module, spec, merged)
	}
}

func (d *Deriver) compute(module string, spec SliceSpec, doc Document) (out any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("state: slice %s/%s panicked: %v", module, spec.Name, r)
			out = nil
		}
	}()
	return spec.Compute(doc)
}

func depsChanged(deps []string, changed map[string]struct{}) bool {
	for _, dep := range deps {
		if _, ok := changed[dep]; ok {
			return true
		}
	}
	return false
}
