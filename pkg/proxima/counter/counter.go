// Package counter provides sparse word→count maps and the merge, diff and
// ranking primitives used across proxima.
package counter

import "sort"

// Counter maps a word to its number of occurrences.
// Counts may be negative after Diff.
type Counter map[string]int64

// Entry is a single ranked (word, count) pair.
type Entry struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// Stoplist reports whether a word should be dropped.
type Stoplist interface {
	IsStop(word string) bool
}

// New creates an empty counter.
func New() Counter {
	return make(Counter)
}

// FromTokens counts every token in order.
func FromTokens(tokens []string) Counter {
	c := make(Counter, len(tokens))
	for _, t := range tokens {
		c[t]++
	}
	return c
}

// Add increments word by n.
func (c Counter) Add(word string, n int64) {
	c[word] += n
}

// Get returns the count for word (0 when absent).
func (c Counter) Get(word string) int64 {
	return c[word]
}

// Total sums all counts.
func (c Counter) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (c Counter) Clone() Counter {
	out := make(Counter, len(c))
	for w, n := range c {
		out[w] = n
	}
	return out
}

// Keys returns the words in ascending order.
func (c Counter) Keys() []string {
	keys := make([]string, 0, len(c))
	for w := range c {
		keys = append(keys, w)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether both counters hold the same non-zero counts.
func (c Counter) Equal(other Counter) bool {
	for w, n := range c {
		if other[w] != n {
			return false
		}
	}
	for w, n := range other {
		if c[w] != n {
			return false
		}
	}
	return true
}

// Merge sums counts key-wise across all inputs. Merge() is the empty counter.
// Inputs are never modified.
func Merge(counters ...Counter) Counter {
	size := 0
	for _, c := range counters {
		if len(c) > size {
			size = len(c)
		}
	}
	out := make(Counter, size)
	for _, c := range counters {
		for w, n := range c {
			out[w] += n
		}
	}
	return out
}

// Diff subtracts, for every group, the counts of all other groups from the
// group's own counts. Only words already present in the group's own counter
// are adjusted; words unique to other groups are never introduced.
func Diff(byGroup map[string]Counter) map[string]Counter {
	out := make(map[string]Counter, len(byGroup))
	for name, own := range byGroup {
		current := own.Clone()
		for other, counts := range byGroup {
			if other == name {
				continue
			}
			for w, n := range counts {
				if _, ok := current[w]; ok {
					current[w] -= n
				}
			}
		}
		out[name] = current
	}
	return out
}

// RemoveStopwords returns a copy of c without the words in stops.
func RemoveStopwords(c Counter, stops Stoplist) Counter {
	out := make(Counter, len(c))
	for w, n := range c {
		if stops != nil && stops.IsStop(w) {
			continue
		}
		out[w] = n
	}
	return out
}

// Sort ranks entries by count descending, breaking ties by word so the
// order is deterministic. limit <= 0 returns every entry.
func Sort(c Counter, limit int) []Entry {
	entries := make([]Entry, 0, len(c))
	for w, n := range c {
		entries = append(entries, Entry{Word: w, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Word < entries[j].Word
		}
		return entries[i].Count > entries[j].Count
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// MostCommon is Sort with optional stopword removal applied first.
func MostCommon(c Counter, limit int, stops Stoplist) []Entry {
	if stops != nil {
		c = RemoveStopwords(c, stops)
	}
	return Sort(c, limit)
}
