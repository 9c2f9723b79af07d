package entity

import "time"

// SearchSessionStatus is the lifecycle state of a SearchSession.
type SearchSessionStatus string

const (
	SearchStatusProcessing SearchSessionStatus = "processing"
	SearchStatusCompleted  SearchSessionStatus = "completed"
)

// TimeRange is an inclusive [Start, End] window used to filter articles.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// SearchSession records one user retrieval intent: a search_id claimed by
// every article the search returns, and the background crawl (if any)
// that fills a result-count gap.
type SearchSession struct {
	SearchID             string
	UserID               string
	KeywordSearch        string
	KeywordContent       string // comma-separated OR list, optional
	MaxArticlesRequested int
	TotalSaved           int
	Status               SearchSessionStatus
	TimeRange            TimeRange
	Websites             []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DataCleared          bool
}

// DefaultHistoryRetention is the default number of sessions kept per user.
const DefaultHistoryRetention = 10
