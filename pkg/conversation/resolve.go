package conversation

import "sort"

// Resolve computes the active path: one message per turn, turns ascending.
// For each turn the selected sibling wins; a missing or dangling selection
// falls back to the last-inserted sibling. Insertion order decides the
// fallback, not timestamps, so the result is stable under clock skew.
//
// Resolve is pure and total: it never fails and never mutates its inputs,
// and identical inputs always produce the identical path.
func Resolve(pool []*Message, selected map[int]int64) []*Message {
	if len(pool) == 0 {
		return nil
	}

	byTurn := make(map[int][]*Message)
	for _, m := range pool {
		byTurn[m.Turn] = append(byTurn[m.Turn], m)
	}

	turns := make([]int, 0, len(byTurn))
	for turn := range byTurn {
		turns = append(turns, turn)
	}
	sort.Ints(turns)

	path := make([]*Message, 0, len(turns))
	for _, turn := range turns {
		siblings := byTurn[turn]
		pick := siblings[len(siblings)-1]
		if id, ok := selected[turn]; ok {
			for _, sibling := range siblings {
				if sibling.ID == id {
					pick = sibling
					break
				}
			}
		}
		path = append(path, pick)
	}

	return path
}
