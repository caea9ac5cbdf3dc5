package yschema

import (
	"github.com/pkg/errors"
)

// ErrPartialHints marks a hint result that is incomplete because a provider
// failed. Such results are fine for suggestions but must not be used to
// decide whether a value is valid.
var ErrPartialHints = errors.New("hints are incomplete")

// Hint is a suggested value.
type Hint struct {
	Value       string `json:"value" yaml:"value"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// HintProvider computes hints from context.
type HintProvider interface {
	Hints(dc DynamicContext) ([]Hint, error)
}

// HintProviderFunc adapts a function to a HintProvider.
type HintProviderFunc func(dc DynamicContext) ([]Hint, error)

func (f HintProviderFunc) Hints(dc DynamicContext) ([]Hint, error) { return f(dc) }

// collectHints merges static hints with those of provider, keeping the first
// occurrence of each value. A failing provider yields the static hints and an
// error wrapping ErrPartialHints.
func collectHints(static []Hint, provider HintProvider, dc DynamicContext) ([]Hint, error) {
	seen := make(map[string]bool, len(static))
	var out []Hint
	add := func(hs []Hint) {
		for _, h := range hs {
			if seen[h.Value] {
				continue
			}
			seen[h.Value] = true
			out = append(out, h)
		}
	}
	add(static)
	if provider == nil {
		return out, nil
	}
	var dynamic []Hint
	err := safeCall(func() error {
		var err error
		dynamic, err = provider.Hints(dc)
		return err
	})
	add(dynamic)
	if err != nil {
		return out, errors.Wrap(ErrPartialHints, err.Error())
	}
	return out, nil
}
