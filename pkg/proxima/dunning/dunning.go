// Package dunning computes the signed Dunning log-likelihood statistic for
// words shared by two populations.
package dunning

import (
	"math"

	"github.com/cognicore/proxima/pkg/proxima/counter"
)

// DefaultMinCount is the minimum combined count for a word to be scored.
const DefaultMinCount = 10

// Record is the score of one word with its counts and frequencies.
type Record struct {
	Dunning    float64 `json:"dunning"`
	CountTotal int64   `json:"count_total"`
	CountCorp1 int64   `json:"count_corp1"`
	CountCorp2 int64   `json:"count_corp2"`
	FreqTotal  float64 `json:"freq_total"`
	FreqCorp1  float64 `json:"freq_corp1"`
	FreqCorp2  float64 `json:"freq_corp2"`
}

// Result maps a word to its record.
type Result map[string]Record

// Word returns the log-likelihood of a word seen count1 times among total1
// words and count2 times among total2 words. Positive scores mean the word
// is over-represented in population 1. A zero count contributes nothing to
// the sum; zero totals score 0.
func Word(total1, total2, count1, count2 float64) float64 {
	if total1 <= 0 || total2 <= 0 || count1+count2 <= 0 {
		return 0
	}
	e1 := total1 * (count1 + count2) / (total1 + total2)
	e2 := total2 * (count1 + count2) / (total1 + total2)

	score := 2 * (xlogx(count1, e1) + xlogx(count2, e2))
	if count1 < e1 {
		score = -score
	}
	return score
}

func xlogx(c, e float64) float64 {
	if c == 0 {
		return 0
	}
	return c * math.Log(c/e)
}

// Total scores every word present in both counters whose combined count is
// at least DefaultMinCount.
func Total(c1, c2 counter.Counter) Result {
	return TotalWithMin(c1, c2, DefaultMinCount)
}

// TotalWithMin is Total with a custom threshold.
func TotalWithMin(c1, c2 counter.Counter, minCount int64) Result {
	total1 := float64(c1.Total())
	total2 := float64(c2.Total())
	out := make(Result)
	for word, n1 := range c1 {
		n2, ok := c2[word]
		if !ok || n1 <= 0 || n2 <= 0 {
			continue
		}
		combined := n1 + n2
		if combined < minCount {
			continue
		}
		out[word] = Record{
			Dunning:    Word(total1, total2, float64(n1), float64(n2)),
			CountTotal: combined,
			CountCorp1: n1,
			CountCorp2: n2,
			FreqTotal:  float64(combined) / (total1 + total2),
			FreqCorp1:  float64(n1) / total1,
			FreqCorp2:  float64(n2) / total2,
		}
	}
	return out
}
