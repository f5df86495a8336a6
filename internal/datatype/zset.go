package datatype

import (
	"github.com/google/btree"
)

const zsetDegree = 16

type zItem struct {
	score  float64
	member string
}

// lessZItem orders by score, ties broken by member
func lessZItem(a, b zItem) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

// ZSet is a set of members each carrying a score, ordered by (score, member).
// Score lookups are O(1). The tree keeps no subtree counts, so Rank costs O(rank)
// and Range walks from the nearer end of the order: O(stop) for head ranges,
// O(length-start) for tail ranges
type ZSet struct {
	scores map[string]float64
	tree   *btree.BTreeG[zItem]
}

func NewZSet() *ZSet {
	return &ZSet{
		scores: make(map[string]float64),
		tree:   btree.NewG(zsetDegree, lessZItem),
	}
}

func (*ZSet) Kind() Kind { return KindZSet }
func (*ZSet) sealed()    {}

// ScoredMember is a member with its score, as returned by Range
type ScoredMember struct {
	Member string
	Score  float64
}

// Add sets the score of member, replacing any previous score.
// It reports whether the member is new
func (z *ZSet) Add(member string, score float64) bool {
	old, exists := z.scores[member]
	if exists {
		if old == score {
			return false
		}
		z.tree.Delete(zItem{score: old, member: member})
	}

	z.scores[member] = score
	z.tree.ReplaceOrInsert(zItem{score: score, member: member})
	return !exists
}

// Remove reports whether member was present
func (z *ZSet) Remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.tree.Delete(zItem{score: score, member: member})
	return true
}

func (z *ZSet) Score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

// Rank returns the zero-based position of member in ascending order
func (z *ZSet) Rank(member string) (int, bool) {
	score, ok := z.scores[member]
	if !ok {
		return 0, false
	}

	rank := 0
	z.tree.AscendLessThan(zItem{score: score, member: member}, func(zItem) bool {
		rank++
		return true
	})
	return rank, true
}

func (z *ZSet) Len() int {
	return len(z.scores)
}

// Range returns the members between ranks start and stop inclusive, in ascending order
func (z *ZSet) Range(start, stop int64) []ScoredMember {
	from, to, ok := normalizeRange(start, stop, z.Len())
	if !ok {
		return []ScoredMember{}
	}

	n := z.Len()
	out := make([]ScoredMember, to-from)

	if n-from < to {
		// the range is closer to the tail
		i := n - 1
		z.tree.Descend(func(it zItem) bool {
			if i < from {
				return false
			}
			if i < to {
				out[i-from] = ScoredMember{Member: it.member, Score: it.score}
			}
			i--
			return true
		})
		return out
	}

	i := 0
	z.tree.Ascend(func(it zItem) bool {
		if i >= to {
			return false
		}
		if i >= from {
			out[i-from] = ScoredMember{Member: it.member, Score: it.score}
		}
		i++
		return true
	})
	return out
}
