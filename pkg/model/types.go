package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	ErrUnknownKind   = errors.New("unknown resource kind")
	ErrNoResources   = errors.New("container must track at least one resource")
	ErrEmptyName     = errors.New("container name is required")
	ErrDuplicateKind = errors.New("duplicate resource kind")
)

// ResourceKind identifies a material stored in a container.
type ResourceKind string

const (
	KindWood    ResourceKind = "wood"
	KindStone   ResourceKind = "stone"
	KindMetal   ResourceKind = "metal"
	KindArmored ResourceKind = "armored"
)

// AllKinds lists every supported kind in display order.
var AllKinds = []ResourceKind{KindWood, KindStone, KindMetal, KindArmored}

var kindLabels = map[ResourceKind]string{
	KindWood:    "Wood",
	KindStone:   "Stone",
	KindMetal:   "Metal",
	KindArmored: "Armored",
}

// ParseKind validates a kind identifier (case-insensitive).
func ParseKind(s string) (ResourceKind, error) {
	k := ResourceKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindLabels[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of AllKinds.
func (k ResourceKind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

// Label returns the human readable name of the kind.
func (k ResourceKind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

func (k ResourceKind) order() int {
	for i, kind := range AllKinds {
		if kind == k {
			return i
		}
	}
	return len(AllKinds)
}

// SortKinds orders kinds by their position in AllKinds.
func SortKinds(kinds []ResourceKind) {
	sort.Slice(kinds, func(i, j int) bool {
		oi, oj := kinds[i].order(), kinds[j].order()
		if oi != oj {
			return oi < oj
		}
		return kinds[i] < kinds[j]
	})
}

// ResourceStock is the decay state of one kind within one container.
type ResourceStock struct {
	Amount       float64   `json:"amount"`
	DailyUpkeep  float64   `json:"daily_upkeep"`
	LastRefilled time.Time `json:"last_refilled"`
}

// StockInput carries user-entered values for a stock before it is stamped
// with a refill time.
type StockInput struct {
	Amount      float64 `json:"amount" yaml:"amount"`
	DailyUpkeep float64 `json:"daily_upkeep" yaml:"daily_upkeep"`
}

// Sanitize clamps negative and non-finite values to zero.
func (in StockInput) Sanitize() StockInput {
	return StockInput{
		Amount:      ClampNonNegative(in.Amount),
		DailyUpkeep: ClampNonNegative(in.DailyUpkeep),
	}
}

// Stock converts the input into a stock refilled at the given instant.
func (in StockInput) Stock(refilledAt time.Time) ResourceStock {
	s := in.Sanitize()
	return ResourceStock{Amount: s.Amount, DailyUpkeep: s.DailyUpkeep, LastRefilled: refilledAt}
}

// ClampNonNegative returns v, or 0 when v is negative, NaN or infinite.
func ClampNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// KindSet is a set of resource kinds. Treat values as immutable: With and
// Without return modified copies.
type KindSet map[ResourceKind]struct{}

// NewKindSet builds a set from the given kinds.
func NewKindSet(kinds ...ResourceKind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k ResourceKind) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of kinds in the set.
func (s KindSet) Len() int { return len(s) }

// With returns a copy of s with k added.
func (s KindSet) With(k ResourceKind) KindSet {
	out := make(KindSet, len(s)+1)
	for kind := range s {
		out[kind] = struct{}{}
	}
	out[k] = struct{}{}
	return out
}

// Without returns a copy of s with the given kinds removed.
func (s KindSet) Without(kinds ...ResourceKind) KindSet {
	out := make(KindSet, len(s))
	for kind := range s {
		out[kind] = struct{}{}
	}
	for _, k := range kinds {
		delete(out, k)
	}
	return out
}

// Sorted returns the kinds in display order.
func (s KindSet) Sorted() []ResourceKind {
	kinds := make([]ResourceKind, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	SortKinds(kinds)
	return kinds
}

// Equal reports whether both sets hold the same kinds.
func (s KindSet) Equal(other KindSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Container is a named holder of independently decaying stocks.
type Container struct {
	ID        string                         `json:"id"`
	Name      string                         `json:"name"`
	Resources map[ResourceKind]ResourceStock `json:"resources"`
	Notified  KindSet                        `json:"-"`
}

// Kinds returns the tracked kinds in display order.
func (c Container) Kinds() []ResourceKind {
	kinds := make([]ResourceKind, 0, len(c.Resources))
	for k := range c.Resources {
		kinds = append(kinds, k)
	}
	SortKinds(kinds)
	return kinds
}

// AlertEvent is emitted once per (container, kind) per depletion cycle.
type AlertEvent struct {
	ContainerID      string       `json:"container_id"`
	ContainerName    string       `json:"container_name"`
	Kind             ResourceKind `json:"kind"`
	TimeToEmptyHours float64      `json:"time_to_empty_hours"`
	At               time.Time    `json:"at"`
}
