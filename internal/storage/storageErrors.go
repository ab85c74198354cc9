package storage

import (
	"errors"
	"strings"
)

var (
	ErrEmailAlreadyVoted = errors.New("email already present in ledger")
	ErrGroupFull         = errors.New("group already holds the maximum number of votes")
)

// SheetName отрезает адрес ячеек: "Votes!A:C" -> "Votes".
func SheetName(rng string) string {
	if i := strings.IndexByte(rng, '!'); i >= 0 {
		return rng[:i]
	}
	return rng
}
