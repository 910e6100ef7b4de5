package match

import (
	"sort"
	"strconv"
	"unicode/utf8"
)

// Pair indexes one source and one target feature record
type Pair struct {
	Source int
	Target int
}

// Blocker restricts comparisons to pairs sharing a blocking key: the
// folded family name prefix, narrowed by birth year when both sides know it
type Blocker struct {
	prefix int
}

// NewBlocker creates a blocker using the first prefix runes of the family
// name. A non-positive prefix uses the whole name.
func NewBlocker(prefix int) *Blocker {
	return &Blocker{prefix: prefix}
}

// Key returns the family name key of f, empty when f has no family name
func (b *Blocker) Key(f Features) string {
	if f.Family == "" {
		return ""
	}
	if b.prefix <= 0 || utf8.RuneCountInString(f.Family) <= b.prefix {
		return f.Family
	}
	runes := []rune(f.Family)
	return string(runes[:b.prefix])
}

func birthYears(f Features) []int {
	if f.BirthBegin.IsZero() {
		return nil
	}
	end := f.BirthEnd
	if end.IsZero() {
		end = f.BirthBegin
	}
	years := make([]int, 0, end.Year()-f.BirthBegin.Year()+1)
	for y := f.BirthBegin.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}
	return years
}

const unknownYear = "?"

// Pairs returns the candidate pairs ordered by source then target index
func (b *Blocker) Pairs(sources, targets []Features) []Pair {
	byYear := make(map[string][]int)   // family key + birth year
	byFamily := make(map[string][]int) // family key only
	for i, t := range targets {
		key := b.Key(t)
		if key == "" {
			continue
		}
		byFamily[key] = append(byFamily[key], i)

		years := birthYears(t)
		if len(years) == 0 {
			byYear[key+"|"+unknownYear] = append(byYear[key+"|"+unknownYear], i)
			continue
		}
		for _, y := range years {
			k := key + "|" + strconv.Itoa(y)
			byYear[k] = append(byYear[k], i)
		}
	}

	var pairs []Pair
	for i, s := range sources {
		key := b.Key(s)
		if key == "" {
			continue
		}

		matched := make(map[int]bool)
		years := birthYears(s)
		if len(years) == 0 {
			for _, j := range byFamily[key] {
				matched[j] = true
			}
		} else {
			for _, j := range byYear[key+"|"+unknownYear] {
				matched[j] = true
			}
			for _, y := range years {
				for _, j := range byYear[key+"|"+strconv.Itoa(y)] {
					matched[j] = true
				}
			}
		}

		targetsOf := make([]int, 0, len(matched))
		for j := range matched {
			targetsOf = append(targetsOf, j)
		}
		sort.Ints(targetsOf)
		for _, j := range targetsOf {
			pairs = append(pairs, Pair{Source: i, Target: j})
		}
	}
	return pairs
}
