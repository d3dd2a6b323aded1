package api

import "github.com/mattjoyce/vellum/internal/history"

// DocumentRequest is the JSON body for POST /documents/{op}
type DocumentRequest struct {
	Content string `json:"content"`
	Syntax  string `json:"syntax,omitempty"`
	Indent  string `json:"indent,omitempty"`
}

// HistorySaveRequest is the JSON body for POST /history
type HistorySaveRequest struct {
	Content string `json:"content"`
}

// AcceptedResponse is returned when a task has been queued
type AcceptedResponse struct {
	Status      string `json:"status"`
	QueueLength int    `json:"queue_length"`
}

// QueueResponse is returned by GET /queue and DELETE /queue
type QueueResponse struct {
	Length      int    `json:"length"`
	Busy        bool   `json:"busy"`
	CurrentTask string `json:"current_task,omitempty"`
}

// HistoryListResponse is returned by GET /history
type HistoryListResponse struct {
	Entries []*history.Entry `json:"entries"`
	Count   int              `json:"count"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	QueueLength      int    `json:"queue_length"`
	Busy             bool   `json:"busy"`
	HistoryAvailable bool   `json:"history_available"`
}
