package models

type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhaseVoting  Phase = "voting"
	PhaseResults Phase = "results"
)

// RevealStage сколько мест пьедестала уже открыто: 0 - ни одного, 3 - все.
type RevealStage int

const (
	RevealNone RevealStage = iota
	RevealThird
	RevealSecond
	RevealAll
)
