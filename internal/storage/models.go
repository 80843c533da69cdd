package storage

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Status string

const (
	StatusIndexing Status = "INDEXING"
	StatusIndexed  Status = "INDEXED"
	StatusFailed   Status = "FAILED"
)

type Site struct {
	ID         int64
	URL        string
	Name       string
	Status     Status
	StatusTime time.Time
	LastError  string
}

type Page struct {
	ID      int64
	SiteID  int64
	Path    string
	Code    int
	Content string
}

type Lemma struct {
	ID        int64
	SiteID    int64
	Lemma     string
	Frequency int
}
