package tally

import (
	"strings"

	"github.com/14kear/siteVoting/internal/domain/models"
)

type RejectReason string

const (
	RejectDuplicateEmail RejectReason = "duplicate_email"
	RejectGroupOverflow  RejectReason = "group_overflow"
)

type Rejected struct {
	Voter  models.Voter `json:"voter"`
	Index  int          `json:"index"`
	Reason RejectReason `json:"reason"`
}

type Reconciliation struct {
	Accepted []models.Voter `json:"-"`
	Rejected []Rejected     `json:"rejected"`
}

// Reconcile replays records in ledger order and keeps the first record per
// email (case-insensitive) and the first groupCap records per group. Records that slipped past
// the submission checks through a concurrent writer end up in Rejected.
func Reconcile(voters []models.Voter, groupCap int) Reconciliation {
	seen := make(map[string]struct{}, len(voters))
	groups := make(map[int]int)

	res := Reconciliation{Accepted: make([]models.Voter, 0, len(voters))}
	for i, v := range voters {
		email := strings.ToLower(v.Email)
		if _, dup := seen[email]; dup {
			res.Rejected = append(res.Rejected, Rejected{Voter: v, Index: i, Reason: RejectDuplicateEmail})
			continue
		}
		if groupCap > 0 && groups[v.Group] >= groupCap {
			res.Rejected = append(res.Rejected, Rejected{Voter: v, Index: i, Reason: RejectGroupOverflow})
			continue
		}

		seen[email] = struct{}{}
		groups[v.Group]++
		res.Accepted = append(res.Accepted, v)
	}
	return res
}
