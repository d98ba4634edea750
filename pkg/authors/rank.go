package authors

import (
	"sort"
	"strings"
)

// Rank orders l in place and returns it: descending EditCount, ties by
// case-insensitive ascending DisplayName, then the editor with the earliest
// FirstEdit is moved to the front. On equal FirstEdit the first one in
// count order wins.
func Rank(l List) List {
	sort.SliceStable(l, func(i, j int) bool {
		return lessByEdits(l[i], l[j])
	})
	return originalAuthorFirst(l)
}

func lessByEdits(a, b Editor) bool {
	if a.EditCount != b.EditCount {
		return a.EditCount > b.EditCount
	}
	return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
}

func originalAuthorFirst(l List) List {
	if len(l) < 2 {
		return l
	}
	first := 0
	for i := 1; i < len(l); i++ {
		if l[i].FirstEdit.Before(l[first].FirstEdit) {
			first = i
		}
	}
	if first == 0 {
		return l
	}
	orig := l[first]
	copy(l[1:first+1], l[:first])
	l[0] = orig
	return l
}

// ParseIncludeBots interprets the includeBots request parameter. An absent
// (empty) value or the literal "false" means false; any other value means true.
func ParseIncludeBots(v string) bool {
	return v != "" && v != "false"
}
