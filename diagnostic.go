package twconfig

import (
	"fmt"
	"sync"

	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/report"
)

// Diagnostic is a warning or error reported during a build.
type Diagnostic = report.Diagnostic

// Severity constants
const (
	SeverityError   = report.SeverityError
	SeverityWarning = report.SeverityWarning
)

// collector forwards log calls and keeps warnings and errors as diagnostics.
// It is shared by every component of one build.
type collector struct {
	next    logging.Logger
	rootDir string

	mu    sync.Mutex
	diags []Diagnostic
}

func newCollector(next logging.Logger, rootDir string) *collector {
	return &collector{next: next, rootDir: rootDir}
}

// silence stops forwarding. Diagnostics are still collected.
func (c *collector) silence() {
	c.next = logging.Nop()
}

// For returns a logger tagging entries with source.
func (c *collector) For(source string) logging.Logger {
	return &sourceLogger{c: c, source: source}
}

func (c *collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diags...)
}

func (c *collector) record(severity, source, msg string, kv []any) {
	d := Diagnostic{Severity: severity, Source: source, Text: msg}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		switch key {
		case logging.FieldPath:
			d.Path = relTo(c.rootDir, fmt.Sprint(kv[i+1]))
		case "key":
			d.Key = fmt.Sprint(kv[i+1])
		case logging.FieldError:
			if err, ok := kv[i+1].(error); ok {
				d.Text += ": " + err.Error()
			}
		}
	}
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

type sourceLogger struct {
	c      *collector
	source string
}

func (l *sourceLogger) Info(msg string, kv ...any) {
	l.c.next.Info(msg, l.tag(kv)...)
}

func (l *sourceLogger) Warn(msg string, kv ...any) {
	l.c.record(SeverityWarning, l.source, msg, kv)
	l.c.next.Warn(msg, l.tag(kv)...)
}

func (l *sourceLogger) Error(msg string, kv ...any) {
	l.c.record(SeverityError, l.source, msg, kv)
	l.c.next.Error(msg, l.tag(kv)...)
}

func (l *sourceLogger) tag(kv []any) []any {
	return append([]any{logging.FieldComponent, l.source}, kv...)
}
