package api

import (
	"sort"
	"strings"
)

type scoredName struct {
	name  string
	score float64
}

// scoreName walks name once with a pointer into query, counting every
// character that equals the pointed query character. The pointer stops on the
// last query character. The score is hits divided by the name length, and is
// only counted when name contains query. Comparison is case-insensitive.
func scoreName(name, query string) (float64, bool) {
	lowerName := strings.ToLower(name)
	lowerQuery := strings.ToLower(query)
	if lowerQuery == "" || !strings.Contains(lowerName, lowerQuery) {
		return 0, false
	}

	nameRunes := []rune(lowerName)
	queryRunes := []rune(lowerQuery)

	hits, pos := 0, 0
	for _, r := range nameRunes {
		if r != queryRunes[pos] {
			continue
		}
		hits++
		if pos < len(queryRunes)-1 {
			pos++
		}
	}

	return float64(hits) / float64(len(nameRunes)), true
}

func searchNames(names []string, query string, limit int, includePartial bool) []string {
	if query == "" {
		return nil
	}

	var scored []scoredName
	for _, name := range names {
		score, matched := scoreName(name, query)
		if matched || includePartial {
			scored = append(scored, scoredName{name: name, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]string, len(scored))
	for i, s := range scored {
		results[i] = s.name
	}

	return results
}
