package insure

import (
	"time"

	"coverbot/logger"
)

// Notification kinds produced for the presentation layer.
const (
	NoteOrderCreated      = "order_created"
	NoteOrderActivated    = "order_activated"
	NoteOrderDiscovered   = "order_discovered"
	NoteClaimOpened       = "claim_opened"
	NoteClaimFinalized    = "claim_finalized"
	NotePassSummary       = "pass_summary"
	NoteCredentialMissing = "credential_missing"
)

// Notification describes one store mutation or pass outcome. The presentation
// layer renders and delivers these; this core only emits them.
type Notification struct {
	Kind   string
	RunID  string
	Member Member
	At     time.Time
	Fields map[string]string
}

// Notifier delivers notifications to the external presentation layer.
type Notifier interface {
	Publish(n Notification)
}

// LogNotifier renders notifications as structured log lines. It is the
// default sink for the CLI; a chat integration would replace it.
type LogNotifier struct {
	Log *logger.Log
}

func (l *LogNotifier) Publish(n Notification) {
	log := l.Log
	if log == nil {
		log = logger.GetLogger()
	}
	fields := logger.Fields{"kind": n.Kind}
	if n.RunID != "" {
		fields["run_id"] = n.RunID
	}
	if n.Member.ID != 0 {
		fields["member_id"] = n.Member.ID
		fields["member"] = n.Member.DisplayName
	}
	for k, v := range n.Fields {
		fields[k] = v
	}
	log.WithComponent("notify").WithFields(fields).Info(n.Kind)
}
