package monitor

import "time"

type Status struct {
	PostgreSQL     bool      `json:"postgresql"`
	Redis          bool      `json:"redis"`
	DeadLetter     bool      `json:"dead_letter"`
	AbandonedCount int       `json:"abandoned_count"`
	LastCheck      time.Time `json:"last_check"`
}
