// Package presets holds the default amount and daily upkeep offered for each
// resource kind when a container is created.
package presets

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

// KindPreset is the default stock for one kind.
type KindPreset struct {
	Kind        model.ResourceKind `yaml:"kind"`
	Amount      float64            `yaml:"amount"`
	DailyUpkeep float64            `yaml:"daily_upkeep"`
}

// File is the YAML layout of a presets file.
type File struct {
	Updated string       `yaml:"updated"`
	Kinds   []KindPreset `yaml:"kinds"`
}

// Set maps each kind to its default stock input.
type Set struct {
	inputs map[model.ResourceKind]model.StockInput
}

// Default returns the built-in presets.
func Default() *Set {
	s, err := LoadFromBytes(defaultData)
	if err != nil {
		panic(fmt.Sprintf("built-in presets: %v", err))
	}
	return s
}

// Load reads a YAML presets file. Kinds it lists override the built-in
// values; kinds it omits keep them.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file %s: %w", path, err)
	}

	overrides, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("presets file %s: %w", path, err)
	}

	s := Default()
	for k, in := range overrides.inputs {
		s.inputs[k] = in
	}
	return s, nil
}

// LoadFromBytes parses YAML presets data. Unknown kinds are rejected and
// negative values are clamped to zero.
func LoadFromBytes(data []byte) (*Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets data: %w", err)
	}
	if len(f.Kinds) == 0 {
		return nil, fmt.Errorf("no kinds defined")
	}

	s := &Set{inputs: make(map[model.ResourceKind]model.StockInput, len(f.Kinds))}
	for _, p := range f.Kinds {
		kind, err := model.ParseKind(string(p.Kind))
		if err != nil {
			return nil, err
		}
		if _, dup := s.inputs[kind]; dup {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateKind, kind)
		}
		s.inputs[kind] = model.StockInput{Amount: p.Amount, DailyUpkeep: p.DailyUpkeep}.Sanitize()
	}
	return s, nil
}

// Get returns the preset for kind.
func (s *Set) Get(kind model.ResourceKind) (model.StockInput, bool) {
	in, ok := s.inputs[kind]
	return in, ok
}

// All returns every preset in display order.
func (s *Set) All() []KindPreset {
	kinds := make([]model.ResourceKind, 0, len(s.inputs))
	for k := range s.inputs {
		kinds = append(kinds, k)
	}
	model.SortKinds(kinds)

	out := make([]KindPreset, 0, len(kinds))
	for _, k := range kinds {
		in := s.inputs[k]
		out = append(out, KindPreset{Kind: k, Amount: in.Amount, DailyUpkeep: in.DailyUpkeep})
	}
	return out
}
