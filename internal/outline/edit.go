package outline

import "sort"

// Promote moves the heading one level toward the root, dragging its subtree
// along. Level 1 headings stay where they are.
func (h *Heading) Promote() {
	if h.Level <= 1 {
		return
	}
	h.shift(-1)
}

// Demote moves the heading one level deeper, dragging its subtree along.
func (h *Heading) Demote() {
	h.shift(1)
}

func (h *Heading) shift(delta int) {
	h.Level += delta
	for _, child := range h.Children {
		child.shift(delta)
	}
}

// SetLevel promotes or demotes the heading until it sits at target. Each
// step moves exactly one level, so the loop runs |level-target| times.
func (h *Heading) SetLevel(target int) {
	if target < 1 {
		target = 1
	}
	for h.Level > target {
		h.Promote()
	}
	for h.Level < target {
		h.Demote()
	}
}

// Append attaches heading as the last child of parent, or as the last
// top-level heading when parent is nil. The heading's level is normalized to
// one below its new parent.
func (d *Document) Append(parent, heading *Heading) {
	heading.parent = parent
	if parent == nil {
		heading.SetLevel(1)
		d.Headings = append(d.Headings, heading)
		return
	}
	heading.SetLevel(parent.Level + 1)
	parent.Children = append(parent.Children, heading)
}

// SortChildren stably reorders the direct children of parent (the top-level
// headings when parent is nil) using less. Bodies and subtrees move with
// their headings.
func (d *Document) SortChildren(parent *Heading, less func(a, b *Heading) bool) {
	siblings := d.Headings
	if parent != nil {
		siblings = parent.Children
	}
	sort.SliceStable(siblings, func(i, j int) bool {
		return less(siblings[i], siblings[j])
	})
}
