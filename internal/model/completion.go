package model

import "time"

// Completion counts how often a user finished a task recently. Counters are
// reset lazily when read: hourly after an hour, daily after a day.
type Completion struct {
	TaskID         int64     `db:"task_id"`
	UserID         int64     `db:"user_id"`
	Hourly         int       `db:"hourly"`
	Daily          int       `db:"daily"`
	LastCompletion time.Time `db:"last_completion"`
}
