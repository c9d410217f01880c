// Package topology builds two-tier overlay topologies.
//
// A topology is a fully meshed backbone of super nodes, each owning a
// contiguous range of regular nodes through spoke edges, plus randomized
// peer edges between regular nodes.
package topology

// Range is a half-open range [Start, End) of regular node indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// Partition assigns regular node indices to super nodes.
//
// Each super node owns floor(regularCount / superCount) consecutive
// indices; the remainder is appended to the last super node's range. It is
// never stored, only recomputed from the two counts.
type Partition struct {
	RegularCount int
	SuperCount   int
	// PerSuper is floor(RegularCount / SuperCount).
	PerSuper int
}

// NewPartition computes the partition map for the given counts.
func NewPartition(regularCount, superCount int) Partition {
	p := Partition{RegularCount: regularCount, SuperCount: superCount}
	if superCount > 0 {
		p.PerSuper = regularCount / superCount
	}
	return p
}

// RangeOf returns the regular index range owned by super node k.
func (p Partition) RangeOf(k int) Range {
	if k < 0 || k >= p.SuperCount {
		return Range{}
	}
	r := Range{Start: k * p.PerSuper, End: (k + 1) * p.PerSuper}
	if k == p.SuperCount-1 {
		r.End = p.RegularCount
	}
	return r
}

// Ranges returns the ranges of every super node in index order.
func (p Partition) Ranges() []Range {
	ranges := make([]Range, p.SuperCount)
	for k := range ranges {
		ranges[k] = p.RangeOf(k)
	}
	return ranges
}

// SuperOf returns the super node index owning regular node index. Indices
// past the last full range (the remainder) clamp to the last super node.
// When PerSuper is zero every regular node belongs to the last super node.
func (p Partition) SuperOf(index int) int {
	last := p.SuperCount - 1
	if p.PerSuper == 0 {
		return last
	}
	k := index / p.PerSuper
	if k > last {
		return last
	}
	return k
}

// Remainder returns the number of regular nodes absorbed by the last range
// beyond its regular share.
func (p Partition) Remainder() int {
	if p.SuperCount == 0 {
		return 0
	}
	return p.RegularCount - p.PerSuper*p.SuperCount
}
