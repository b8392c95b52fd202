// Package status хранит отметки клиентов о доступности API (status checks).
package status

import "time"

// Check — одна отметка клиента.
type Check struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// CreateRequest — тело POST /status.
type CreateRequest struct {
	ClientName string `json:"client_name"`
}

// listLimit — сколько отметок отдаёт GET /status.
const listLimit = 1000
