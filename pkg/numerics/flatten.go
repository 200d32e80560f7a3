package numerics

import (
	"fmt"
	"sort"
)

// ShapeEntry records one named block inside a flattened vector.
type ShapeEntry struct {
	Name   string
	Length int
}

// ShapeDescriptor lists the blocks of a flattened vector in order, so the
// flattening can be undone. Blocks are laid out in sorted-name order, which
// makes the layout deterministic across runs.
type ShapeDescriptor []ShapeEntry

// TotalLength returns the combined length of all blocks.
func (d ShapeDescriptor) TotalLength() int {
	total := 0
	for _, e := range d {
		total += e.Length
	}
	return total
}

// Flatten serializes the named blocks into a single vector together with the
// descriptor needed to reconstruct them.
func Flatten(blocks map[string][]float64) ([]float64, ShapeDescriptor) {
	names := make([]string, 0, len(blocks))
	for name := range blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	desc := make(ShapeDescriptor, 0, len(names))
	var flat []float64
	for _, name := range names {
		desc = append(desc, ShapeEntry{Name: name, Length: len(blocks[name])})
		flat = append(flat, blocks[name]...)
	}
	return flat, desc
}

// Reconstruct splits flat back into named blocks according to desc. The
// returned slices are copies.
func Reconstruct(flat []float64, desc ShapeDescriptor) (map[string][]float64, error) {
	if len(flat) != desc.TotalLength() {
		return nil, fmt.Errorf("numerics: flat vector has %d entries, descriptor expects %d", len(flat), desc.TotalLength())
	}

	blocks := make(map[string][]float64, len(desc))
	offset := 0
	for _, e := range desc {
		block := make([]float64, e.Length)
		copy(block, flat[offset:offset+e.Length])
		blocks[e.Name] = block
		offset += e.Length
	}
	return blocks, nil
}
