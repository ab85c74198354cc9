// Package tally turns ledger records into vote counts and rankings.
// Everything here is pure: no I/O, no clocks.
package tally

import (
	"sort"

	"github.com/14kear/siteVoting/internal/domain/models"
)

// Tally counts votes per configured site. Every site is present, starting
// at zero; votes for unknown site ids are ignored.
func Tally(sites []models.Site, voters []models.Voter) models.VoteCounts {
	counts := make(models.VoteCounts, len(sites))
	for _, s := range sites {
		counts[s.ID] = 0
	}
	for _, v := range voters {
		if _, ok := counts[v.VotedFor]; ok {
			counts[v.VotedFor]++
		}
	}
	return counts
}

// GroupTally counts records per declared group.
func GroupTally(voters []models.Voter) models.GroupVotes {
	groups := make(models.GroupVotes)
	for _, v := range voters {
		groups[v.Group]++
	}
	return groups
}

// Rank сортирует сайты по убыванию голосов; при равенстве сохраняется
// порядок из конфигурации.
func Rank(sites []models.Site, counts models.VoteCounts) []models.Ranked {
	ranked := make([]models.Ranked, len(sites))
	for i, s := range sites {
		ranked[i] = models.Ranked{Site: s, Votes: counts[s.ID]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Votes > ranked[j].Votes
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Podium returns at most the first three entries of a ranking.
func Podium(ranked []models.Ranked) []models.Ranked {
	if len(ranked) > 3 {
		return ranked[:3]
	}
	return ranked
}
