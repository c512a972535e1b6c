package indexed

// idxElem is one sampled (key, node) pair. Invariant: a list's elems are
// strictly increasing by k; elems[0] is always (head.k, head).
type idxElem struct {
	k    Key
	node *node
}

// index is an immutable snapshot, swapped as a whole via atomic.Pointer by
// the background worker. Readers load it once per traversal.
type index struct {
	elems []idxElem
}

// useIdx binary-searches for the greatest entry with k_i <= k (inclusive
// bounds), per spec.md §4.7's use_idx.
func (ix *index) useIdx(k Key) *node {
	i := searchLE(len(ix.elems), k, func(i int) Key { return ix.elems[i].k })
	return ix.elems[i].node
}

// indexBuilder accumulates entries for one restructure pass, growing its
// backing array by doubling when full. This mirrors the source's
// spareidx->cap *= 2 policy exactly (SPEC_FULL.md §10): the doubling keeps
// the pass's amortized per-entry cost O(1), which matters because the pass
// must finish — and publish a fully-built index — before any reader could
// observe a half-built one.
type indexBuilder struct {
	elems []idxElem
}

func newIndexBuilder(cap int) *indexBuilder {
	if cap < 1 {
		cap = 1
	}
	return &indexBuilder{elems: make([]idxElem, 0, cap)}
}

func (b *indexBuilder) append(k Key, n *node) {
	if len(b.elems) == cap(b.elems) {
		newCap := cap(b.elems) * 2
		grown := make([]idxElem, len(b.elems), newCap)
		copy(grown, b.elems)
		b.elems = grown
	}
	b.elems = append(b.elems, idxElem{k: k, node: n})
}

func (b *indexBuilder) build() *index {
	return &index{elems: b.elems}
}
