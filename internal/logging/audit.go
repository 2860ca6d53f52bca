package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names what an audit line records.
type AuditEventType string

const (
	// Chat command lifecycle
	AuditCommandReceived AuditEventType = "command_received"
	AuditCommandReplied  AuditEventType = "command_replied"
	AuditCommandIgnored  AuditEventType = "command_ignored"

	// Dataset lifecycle
	AuditDatasetRefresh AuditEventType = "dataset_refresh"
	AuditDatasetReload  AuditEventType = "dataset_reload"
)

// AuditEvent is one JSON line of the audit log.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"`               // Unix milliseconds
	EventType  AuditEventType `json:"event"`            // What happened
	Category   string         `json:"cat,omitempty"`    // Log category
	RequestID  string         `json:"req,omitempty"`    // Request correlation
	Command    string         `json:"cmd,omitempty"`    // Command prefix
	Words      string         `json:"words,omitempty"`  // Command arguments
	Reply      string         `json:"reply,omitempty"`  // "text" or the image format
	Success    bool           `json:"success"`          // Operation succeeded
	DurationMs int64          `json:"dur_ms,omitempty"` // Duration in milliseconds
	Error      string         `json:"error,omitempty"`  // Error or reply text if failed
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditFile *os.File
	auditMu   sync.Mutex
)

// AuditLogger writes audit events carrying a fixed request id and category.
type AuditLogger struct {
	requestID string
	category  Category
}

// InitAudit opens <logs>/<date>_audit.jsonl. It does nothing outside debug mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	configMu.RLock()
	dir := logsDir
	configMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(dir, fmt.Sprintf("%s_audit.jsonl", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file
	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns an audit logger scoped to one request.
func Audit(requestID string, category Category) *AuditLogger {
	return &AuditLogger{requestID: requestID, category: category}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RequestID == "" {
		event.RequestID = a.requestID
	}
	if event.Category == "" && a.category != "" {
		event.Category = string(a.category)
	}

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.Write(append(data, '\n'))
	}
}

// =============================================================================
// CONVENIENCE METHODS
// =============================================================================

// CommandReceived records an incoming chat command.
func (a *AuditLogger) CommandReceived(cmd, words string) {
	a.Log(AuditEvent{
		EventType: AuditCommandReceived,
		Command:   cmd,
		Words:     words,
		Success:   true,
	})
}

// CommandReplied records the reply to a command. errText is the text of a failure
// reply, empty on success.
func (a *AuditLogger) CommandReplied(cmd, reply string, duration time.Duration, errText string) {
	a.Log(AuditEvent{
		EventType:  AuditCommandReplied,
		Command:    cmd,
		Reply:      reply,
		Success:    errText == "",
		DurationMs: duration.Milliseconds(),
		Error:      errText,
	})
}

// CommandIgnored records a command that produces no reply.
func (a *AuditLogger) CommandIgnored(cmd, words string) {
	a.Log(AuditEvent{
		EventType: AuditCommandIgnored,
		Command:   cmd,
		Words:     words,
		Success:   true,
	})
}

// DatasetEvent records a dataset refresh or reload.
func (a *AuditLogger) DatasetEvent(eventType AuditEventType, duration time.Duration, err error) {
	e := AuditEvent{
		EventType:  eventType,
		Success:    err == nil,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}
