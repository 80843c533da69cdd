package service

import (
	"github.com/deidaraiorek/sitesearch/internal/search"
)

// Response is the result-or-error envelope returned by every operation.
type Response struct {
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

func ok() Response {
	return Response{Result: true}
}

func fail(msg string) Response {
	return Response{Result: false, Error: msg}
}

type SearchResponse struct {
	Response
	Count int           `json:"count"`
	Data  []search.Item `json:"data"`
}

type StatisticsResponse struct {
	Response
	Statistics Statistics `json:"statistics"`
}

type Statistics struct {
	Total    TotalStatistics  `json:"total"`
	Detailed []SiteStatistics `json:"detailed"`
}

type TotalStatistics struct {
	Sites    int  `json:"sites"`
	Pages    int  `json:"pages"`
	Lemmas   int  `json:"lemmas"`
	Indexing bool `json:"indexing"`
}

type SiteStatistics struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusTime int64  `json:"statusTime"`
	Error      string `json:"error,omitempty"`
	Pages      int    `json:"pages"`
	Lemmas     int    `json:"lemmas"`
}
