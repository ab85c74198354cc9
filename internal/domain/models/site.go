package models

import (
	"fmt"
	"time"
)

// MaxSites верхняя граница числа сайтов в одном голосовании.
const MaxSites = 20

type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SiteID возвращает идентификатор сайта по его позиции (с нуля).
func SiteID(index int) string {
	return fmt.Sprintf("site-%d", index+1)
}

type VotingConfig struct {
	Sites   []Site    `json:"sites"`
	EndTime time.Time `json:"end_time"`
}

// HasSite reports whether id belongs to one of the configured sites.
func (c VotingConfig) HasSite(id string) bool {
	for _, s := range c.Sites {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ViewMode is how a client shows a site: inline or as a link.
type ViewMode string

const (
	ViewEmbedded     ViewMode = "embedded"
	ViewExternalLink ViewMode = "external_link"
)

func (m ViewMode) Valid() bool {
	return m == ViewEmbedded || m == ViewExternalLink
}

type Ranked struct {
	Site  Site `json:"site"`
	Votes int  `json:"votes"`
	Rank  int  `json:"rank"`
}
