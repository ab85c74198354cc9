package models

// Voter одна строка голосов: кто, в какой группе и за какой сайт.
type Voter struct {
	Email    string `json:"email"`
	Group    int    `json:"group"`
	VotedFor string `json:"voted_for"`
}

// Ballot is a vote attempt as it arrives from a client, before validation.
type Ballot struct {
	Email  string
	Group  string
	SiteID string
}

type VoteCounts map[string]int

type GroupVotes map[int]int

type Identity struct {
	Email string `json:"email"`
}
