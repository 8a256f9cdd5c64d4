package domain

import "time"

// LaunchPlan describes an upcoming release bulletin. Display only,
// independent of Wine.
type LaunchPlan struct {
	ID        int64
	Title     string
	Date      time.Time
	Year      int
	Quarter   int
	SourceURL string
	CreatedAt time.Time
}
