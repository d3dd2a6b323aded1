// Package bridge exposes the viewer's document operations as fire-and-forget
// tasks. Every operation is enqueued on the single-flight serialiser; results
// are delivered as events on the hub, never as return values. This is the
// only place the UI-facing surface touches the serialiser.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/vellum/internal/document"
	"github.com/mattjoyce/vellum/internal/events"
	"github.com/mattjoyce/vellum/internal/history"
	"github.com/mattjoyce/vellum/internal/log"
	"github.com/mattjoyce/vellum/internal/serial"
)

// Result event type names. Task lifecycle events (started/completed/...)
// are published by the serialiser itself; these carry operation output.
const (
	ResultFormat   = "result.format"
	ResultMinify   = "result.minify"
	ResultValidate = "result.validate"
	ResultRender   = "result.render"

	HistorySaved   = "history.saved"
	HistoryLoaded  = "history.loaded"
	HistoryEntry   = "history.entry"
	HistoryDeleted = "history.deleted"
	HistoryCleared = "history.cleared"
)

// OpResult is the payload for format/minify/render result events.
type OpResult struct {
	Syntax  string `json:"syntax"`
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidateResult is the payload for validate result events.
type ValidateResult struct {
	Syntax     string              `json:"syntax"`
	Validation document.Validation `json:"validation"`
}

// HistoryResult is the payload for history.* events.
type HistoryResult struct {
	Success bool             `json:"success"`
	ID      string           `json:"id,omitempty"`
	Error   string           `json:"error,omitempty"`
	Entry   *history.Entry   `json:"entry,omitempty"`
	Entries []*history.Entry `json:"entries,omitempty"`
}

type Bridge struct {
	tasks   *serial.Serialiser
	store   *history.Store
	hub     *events.Hub
	logger  *slog.Logger
	listCap int
}

// New creates a Bridge. store may be nil, in which case history operations
// report failure without being attempted.
func New(tasks *serial.Serialiser, store *history.Store) *Bridge {
	return &Bridge{
		tasks:   tasks,
		store:   store,
		hub:     tasks.Hub(),
		logger:  log.WithComponent("bridge"),
		listCap: 100,
	}
}

// Tasks returns the underlying serialiser, for queue introspection.
func (b *Bridge) Tasks() *serial.Serialiser {
	return b.tasks
}

// HistoryAvailable reports whether a history store is wired.
func (b *Bridge) HistoryAvailable() bool {
	return b.store != nil
}

// FormatDocument re-indents input according to its syntax.
func (b *Bridge) FormatDocument(input string, syntax document.Syntax, indent document.IndentStyle) error {
	switch syntax {
	case document.SyntaxXML:
		return b.enqueueOp("formatXml", ResultFormat, syntax, func() (string, error) {
			return document.FormatXML(input, indent)
		})
	case document.SyntaxMarkdown:
		return fmt.Errorf("markdown cannot be formatted, only rendered")
	default:
		return b.enqueueOp("formatJson", ResultFormat, document.SyntaxJSON, func() (string, error) {
			return document.FormatJSON(input, indent)
		})
	}
}

// MinifyDocument strips insignificant whitespace according to syntax.
func (b *Bridge) MinifyDocument(input string, syntax document.Syntax) error {
	if syntax == document.SyntaxXML {
		return b.enqueueOp("minifyXml", ResultMinify, syntax, func() (string, error) {
			return document.MinifyXML(input)
		})
	}
	return b.enqueueOp("minifyJson", ResultMinify, document.SyntaxJSON, func() (string, error) {
		return document.MinifyJSON(input)
	})
}

// RenderMarkdown converts Markdown to HTML.
func (b *Bridge) RenderMarkdown(input string) error {
	return b.enqueueOp("renderMarkdown", ResultRender, document.SyntaxMarkdown, func() (string, error) {
		return document.RenderMarkdown(input)
	})
}

// ValidateDocument checks input for well-formedness and, for JSON, reports
// structure statistics.
func (b *Bridge) ValidateDocument(input string, syntax document.Syntax) error {
	name := "validateJson"
	if syntax == document.SyntaxXML {
		name = "validateXml"
	}
	return b.tasks.Enqueue(name, func() *serial.Future {
		return serial.Go(func() (any, error) {
			var v document.Validation
			if syntax == document.SyntaxXML {
				v = document.ValidateXML(input)
			} else {
				v = document.ValidateJSON(input)
			}
			b.hub.Publish(ResultValidate, ValidateResult{Syntax: string(syntax), Validation: v})
			// An invalid document is a successful validation run.
			return v, nil
		})
	})
}

// SaveToHistory persists content, detecting its syntax.
func (b *Bridge) SaveToHistory(content string) error {
	return b.tasks.Enqueue("saveToHistory", func() *serial.Future {
		return serial.Go(func() (any, error) {
			if b.store == nil {
				b.hub.Publish(HistorySaved, HistoryResult{Success: false, Error: "history unavailable"})
				return nil, fmt.Errorf("history unavailable")
			}
			syntax := document.DetectSyntax(content)
			entry, err := b.store.Save(context.Background(), string(syntax), content)
			if err != nil {
				b.hub.Publish(HistorySaved, HistoryResult{Success: false, Error: err.Error()})
				return nil, err
			}
			b.hub.Publish(HistorySaved, HistoryResult{Success: true, ID: entry.ID})
			return entry.ID, nil
		})
	})
}

// LoadHistory publishes the newest entries.
func (b *Bridge) LoadHistory() error {
	return b.tasks.Enqueue("loadHistory", func() *serial.Future {
		return serial.Go(func() (any, error) {
			if b.store == nil {
				b.hub.Publish(HistoryLoaded, HistoryResult{Success: false, Error: "history unavailable"})
				return nil, fmt.Errorf("history unavailable")
			}
			entries, err := b.store.List(context.Background(), b.listCap)
			if err != nil {
				b.hub.Publish(HistoryLoaded, HistoryResult{Success: false, Error: err.Error()})
				return nil, err
			}
			b.hub.Publish(HistoryLoaded, HistoryResult{Success: true, Entries: entries})
			return len(entries), nil
		})
	})
}

// GetHistoryEntry publishes a single entry with full content.
func (b *Bridge) GetHistoryEntry(id string) error {
	return b.tasks.Enqueue("getHistoryEntry", func() *serial.Future {
		return serial.Go(func() (any, error) {
			if b.store == nil {
				b.hub.Publish(HistoryEntry, HistoryResult{Success: false, Error: "history unavailable"})
				return nil, fmt.Errorf("history unavailable")
			}
			entry, err := b.store.Get(context.Background(), id)
			if err != nil {
				b.hub.Publish(HistoryEntry, HistoryResult{Success: false, ID: id, Error: err.Error()})
				return nil, err
			}
			b.hub.Publish(HistoryEntry, HistoryResult{Success: true, ID: id, Entry: entry})
			return entry, nil
		})
	})
}

// DeleteHistoryEntry removes a single entry.
func (b *Bridge) DeleteHistoryEntry(id string) error {
	return b.tasks.Enqueue("deleteHistoryEntry", func() *serial.Future {
		return serial.Go(func() (any, error) {
			if b.store == nil {
				b.hub.Publish(HistoryDeleted, HistoryResult{Success: false, Error: "history unavailable"})
				return nil, fmt.Errorf("history unavailable")
			}
			if err := b.store.Delete(context.Background(), id); err != nil {
				b.hub.Publish(HistoryDeleted, HistoryResult{Success: false, ID: id, Error: err.Error()})
				return nil, err
			}
			b.hub.Publish(HistoryDeleted, HistoryResult{Success: true, ID: id})
			return nil, nil
		})
	})
}

// ClearHistory removes all entries.
func (b *Bridge) ClearHistory() error {
	return b.tasks.Enqueue("clearHistory", func() *serial.Future {
		return serial.Go(func() (any, error) {
			if b.store == nil {
				b.hub.Publish(HistoryCleared, HistoryResult{Success: false, Error: "history unavailable"})
				return nil, fmt.Errorf("history unavailable")
			}
			if err := b.store.Clear(context.Background()); err != nil {
				b.hub.Publish(HistoryCleared, HistoryResult{Success: false, Error: err.Error()})
				return nil, err
			}
			b.hub.Publish(HistoryCleared, HistoryResult{Success: true})
			return nil, nil
		})
	})
}

// enqueueOp wraps a string-producing document operation as a named task that
// publishes its result on the hub.
func (b *Bridge) enqueueOp(taskName, eventType string, syntax document.Syntax, op func() (string, error)) error {
	return b.tasks.Enqueue(taskName, func() *serial.Future {
		return serial.Go(func() (any, error) {
			out, err := op()
			result := OpResult{Syntax: string(syntax), Success: err == nil, Output: out}
			if err != nil {
				result.Error = err.Error()
				var posErr *document.PositionError
				if errors.As(err, &posErr) {
					result.Line = posErr.Line
					result.Column = posErr.Column
				}
				b.logger.Debug("document operation failed",
					slog.String("task", taskName),
					slog.String("error", err.Error()))
				b.hub.Publish(eventType, result)
				return nil, err
			}
			b.hub.Publish(eventType, result)
			return out, nil
		})
	})
}
