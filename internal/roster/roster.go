// Package roster holds the evaluated model variants and architecture modules
// shown on the dashboard. A Roster is built once and never mutated.
package roster

import (
	"errors"
	"fmt"
	"math"
)

// ProposedMarker identifies the proposed model by name substring.
const ProposedMarker = "FDE"

// ErrInvalidRoster is returned when roster data breaks an authoring invariant.
var ErrInvalidRoster = errors.New("invalid roster")

// ModelEntry is one evaluated model variant.
// Precision, Recall, MAP50 and MAP50_95 are fractions in [0,1], not percents.
type ModelEntry struct {
	Name      string  `json:"name"`
	Params    float64 `json:"params"` // millions
	FLOPs     float64 `json:"flops"`  // giga-FLOPs
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	MAP50     float64 `json:"mAP50"`
	MAP50_95  float64 `json:"mAP50_95"`
	BoxLoss   float64 `json:"boxLoss"`
	ClsLoss   float64 `json:"clsLoss"`
	DFLLoss   float64 `json:"dflLoss"`
}

// ModuleDescriptor documents an architectural sub-module.
type ModuleDescriptor struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
	Diagram string `json:"diagram"`
}

// Roster is the immutable set of data the dashboard renders.
type Roster struct {
	models       []ModelEntry
	modules      []ModuleDescriptor
	architecture string
	paper        string
}

// Option customizes a Roster at construction.
type Option func(*Roster)

// WithModules sets the module descriptors.
func WithModules(mods []ModuleDescriptor) Option {
	return func(r *Roster) {
		r.modules = append([]ModuleDescriptor(nil), mods...)
	}
}

// WithArchitecture sets the architecture diagram path.
func WithArchitecture(path string) Option {
	return func(r *Roster) { r.architecture = path }
}

// WithPaper sets the downloadable paper reference.
func WithPaper(path string) Option {
	return func(r *Roster) { r.paper = path }
}

// New validates models and returns an immutable Roster.
func New(models []ModelEntry, opts ...Option) (*Roster, error) {
	if err := Validate(models); err != nil {
		return nil, err
	}
	r := &Roster{models: append([]ModelEntry(nil), models...)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Validate checks the authoring invariants of a model list.
func Validate(models []ModelEntry) error {
	if len(models) == 0 {
		return fmt.Errorf("%w: no models", ErrInvalidRoster)
	}
	seen := make(map[string]struct{}, len(models))
	for i, m := range models {
		if m.Name == "" {
			return fmt.Errorf("%w: model %d has empty name", ErrInvalidRoster, i)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%w: duplicate model name %q", ErrInvalidRoster, m.Name)
		}
		seen[m.Name] = struct{}{}

		if !(m.Params > 0) || !(m.FLOPs > 0) {
			return fmt.Errorf("%w: %q params and flops must be > 0", ErrInvalidRoster, m.Name)
		}
		fractions := map[string]float64{
			"precision": m.Precision,
			"recall":    m.Recall,
			"mAP50":     m.MAP50,
			"mAP50_95":  m.MAP50_95,
		}
		for field, v := range fractions {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("%w: %q %s=%v outside [0,1]", ErrInvalidRoster, m.Name, field, v)
			}
		}
		losses := map[string]float64{
			"boxLoss": m.BoxLoss,
			"clsLoss": m.ClsLoss,
			"dflLoss": m.DFLLoss,
		}
		for field, v := range losses {
			if math.IsNaN(v) || v < 0 {
				return fmt.Errorf("%w: %q %s=%v is negative", ErrInvalidRoster, m.Name, field, v)
			}
		}
	}
	return nil
}

// Models returns a copy of the model list in roster order.
func (r *Roster) Models() []ModelEntry {
	return append([]ModelEntry(nil), r.models...)
}

// Modules returns a copy of the module descriptors.
func (r *Roster) Modules() []ModuleDescriptor {
	return append([]ModuleDescriptor(nil), r.modules...)
}

// Architecture returns the architecture diagram path.
func (r *Roster) Architecture() string { return r.architecture }

// Paper returns the downloadable paper reference.
func (r *Roster) Paper() string { return r.paper }

// Len returns the number of models.
func (r *Roster) Len() int { return len(r.models) }
