// Package idmap keeps the bookkeeping between original identifiers and
// their on-screen order: which IDs are shown, in what order, where group
// gaps fall, and how the view transforms under reordering, splitting and
// zooming. A Mapping is immutable; every transform returns a new one.
package idmap

import (
	"fmt"
	"sort"
)

// Group is a contiguous run of identifiers within a split view.
type Group struct {
	Name string
	IDs  []string
}

// Mapping holds identifiers in visual order plus the gap positions
// introduced by splits. Transforms never mutate the receiver.
type Mapping struct {
	order  []string
	index  map[string]int
	gaps   map[int]bool
	groups []Group
}

// New builds a Mapping from identifiers in display order without splits.
func New(ids []string) (*Mapping, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("idmap: empty identifier list")
	}
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("idmap: duplicate identifier %q", id)
		}
		index[id] = i
	}
	order := append([]string(nil), ids...)
	return &Mapping{
		order:  order,
		index:  index,
		gaps:   map[int]bool{},
		groups: []Group{{Name: "all", IDs: order}},
	}, nil
}

func build(order []string, gaps map[int]bool, groups []Group) *Mapping {
	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}
	return &Mapping{order: order, index: index, gaps: gaps, groups: groups}
}

// Size returns the number of identifiers in the view.
func (m *Mapping) Size() int { return len(m.order) }

// Order returns a copy of the identifiers in display order.
func (m *Mapping) Order() []string {
	return append([]string(nil), m.order...)
}

// Gaps returns the sorted visual indices preceded by a group gap.
func (m *Mapping) Gaps() []int {
	out := make([]int, 0, len(m.gaps))
	for g := range m.gaps {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}

// Groups returns the split groups of the view.
func (m *Mapping) Groups() []Group {
	return append([]Group(nil), m.groups...)
}

// Contains reports whether the identifier is part of the view.
func (m *Mapping) Contains(id string) bool {
	_, ok := m.index[id]
	return ok
}

// IndexOf returns the visual index of an identifier.
func (m *Mapping) IndexOf(id string) (int, bool) {
	i, ok := m.index[id]
	return i, ok
}

// Resolve returns the identifiers in the half-open visual index range
// [start, end), clamped to the view.
func (m *Mapping) Resolve(start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(m.order) {
		end = len(m.order)
	}
	if start >= end {
		return nil
	}
	return append([]string(nil), m.order[start:end]...)
}

// Reorder returns a new Mapping with the given display order, which must
// be a permutation of the current identifiers.
func (m *Mapping) Reorder(newOrder []string) (*Mapping, error) {
	if len(newOrder) != len(m.order) {
		return nil, fmt.Errorf("idmap: reorder has %d identifiers, view has %d", len(newOrder), len(m.order))
	}
	seen := make(map[string]bool, len(newOrder))
	for _, id := range newOrder {
		if _, ok := m.index[id]; !ok {
			return nil, fmt.Errorf("idmap: reorder introduces unknown identifier %q", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("idmap: reorder repeats identifier %q", id)
		}
		seen[id] = true
	}
	return build(append([]string(nil), newOrder...), m.gaps, m.groups), nil
}

// Split partitions the view into the given groups, in group order, with a
// gap before each group after the first. Every current identifier must
// appear in exactly one group; relative order within a group follows the
// current display order.
func (m *Mapping) Split(groups []Group) (*Mapping, error) {
	assigned := make(map[string]bool)
	for _, g := range groups {
		for _, id := range g.IDs {
			if assigned[id] {
				return nil, fmt.Errorf("idmap: identifier %q assigned to multiple groups", id)
			}
			if _, ok := m.index[id]; !ok {
				return nil, fmt.Errorf("idmap: group %q has unknown identifier %q", g.Name, id)
			}
			assigned[id] = true
		}
	}
	if len(assigned) != len(m.order) {
		return nil, fmt.Errorf("idmap: split covers %d of %d identifiers", len(assigned), len(m.order))
	}

	newOrder := make([]string, 0, len(m.order))
	newGaps := map[int]bool{}
	newGroups := make([]Group, 0, len(groups))
	for _, g := range groups {
		inGroup := make(map[string]bool, len(g.IDs))
		for _, id := range g.IDs {
			inGroup[id] = true
		}
		ordered := make([]string, 0, len(g.IDs))
		for _, id := range m.order {
			if inGroup[id] {
				ordered = append(ordered, id)
			}
		}
		if len(newOrder) > 0 {
			newGaps[len(newOrder)] = true
		}
		newGroups = append(newGroups, Group{Name: g.Name, IDs: ordered})
		newOrder = append(newOrder, ordered...)
	}
	return build(newOrder, newGaps, newGroups), nil
}

// ReorderWithinGroups reorders identifiers inside each named group
// independently. Each value must be a permutation of that group's IDs;
// groups not named are left unchanged.
func (m *Mapping) ReorderWithinGroups(orders map[string][]string) (*Mapping, error) {
	newOrder := make([]string, 0, len(m.order))
	newGroups := make([]Group, 0, len(m.groups))
	for _, g := range m.groups {
		ids := g.IDs
		if want, ok := orders[g.Name]; ok {
			if err := samePermutation(g.IDs, want); err != nil {
				return nil, fmt.Errorf("idmap: group %q: %w", g.Name, err)
			}
			ids = append([]string(nil), want...)
		}
		newGroups = append(newGroups, Group{Name: g.Name, IDs: ids})
		newOrder = append(newOrder, ids...)
	}
	return build(newOrder, m.gaps, newGroups), nil
}

func samePermutation(have, want []string) error {
	if len(have) != len(want) {
		return fmt.Errorf("reorder has %d identifiers, group has %d", len(want), len(have))
	}
	set := make(map[string]bool, len(have))
	for _, id := range have {
		set[id] = true
	}
	for _, id := range want {
		if !set[id] {
			return fmt.Errorf("reorder introduces unknown identifier %q", id)
		}
	}
	return nil
}

// Zoom returns a new Mapping restricted to the half-open visual index
// range [start, end), clamped to the view. Gap positions strictly inside
// the range shift with it; a gap landing on the new first cell is
// dropped. Group definitions carry over for later categorical queries.
func (m *Mapping) Zoom(start, end int) (*Mapping, error) {
	if start < 0 {
		start = 0
	}
	if end > len(m.order) {
		end = len(m.order)
	}
	if start >= end {
		return nil, fmt.Errorf("idmap: empty zoom range [%d, %d)", start, end)
	}
	newGaps := map[int]bool{}
	for g := range m.gaps {
		if start < g && g < end {
			newGaps[g-start] = true
		}
	}
	return build(append([]string(nil), m.order[start:end]...), newGaps, m.groups), nil
}

// ZoomToIDs returns a new Mapping containing only the given identifiers,
// packed together in their current display order with no gaps.
func (m *Mapping) ZoomToIDs(ids []string) (*Mapping, error) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	filtered := make([]string, 0, len(ids))
	for _, id := range m.order {
		if keep[id] {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("idmap: no matching identifiers in view")
	}
	return build(filtered, map[int]bool{}, m.groups), nil
}

// Dict is the JSON shape of a Mapping for the layout payload.
type Dict struct {
	VisualOrder  []string `json:"visual_order"`
	GapPositions []int    `json:"gap_positions"`
	Size         int      `json:"size"`
}

// ToDict returns the serializable form of the Mapping.
func (m *Mapping) ToDict() Dict {
	return Dict{VisualOrder: m.Order(), GapPositions: m.Gaps(), Size: m.Size()}
}
