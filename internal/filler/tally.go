// Package filler derives filler-word statistics from transcript entries.
package filler

import "sort"

// Occurrence is one filler word spoken at an offset into the session.
type Occurrence struct {
	Word string  `json:"word" yaml:"word"`
	Time float64 `json:"time" yaml:"time"`
}

// Entry is one transcript line with the fillers detected in it.
type Entry struct {
	Text    string       `json:"text" yaml:"text"`
	Time    float64      `json:"time" yaml:"time"`
	Fillers []Occurrence `json:"fillers" yaml:"fillers"`
}

// Tally maps a filler word to how often it occurred.
type Tally map[string]int

// Recompute flattens every filler across entries in transcript order and
// counts them. It always starts from scratch so calling it again with the
// same entries yields the same result.
func Recompute(entries []Entry) ([]Occurrence, Tally) {
	all := []Occurrence{}
	counts := Tally{}
	for _, e := range entries {
		for _, f := range e.Fillers {
			all = append(all, f)
			counts[f.Word]++
		}
	}
	return all, counts
}

// Total returns the sum of all counts.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Ranked returns the words ordered by descending count, ties by word.
func (t Tally) Ranked() []string {
	words := make([]string, 0, len(t))
	for w := range t {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if t[words[i]] != t[words[j]] {
			return t[words[i]] > t[words[j]]
		}
		return words[i] < words[j]
	})
	return words
}

// Clone returns an independent copy.
func (t Tally) Clone() Tally {
	out := make(Tally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
