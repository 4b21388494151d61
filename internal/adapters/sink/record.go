package sink

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// ErrNotFound is returned when no row exists for a message
var ErrNotFound = errors.New("record not found")

// ProcessingCompleted is the processing status written with every row
const ProcessingCompleted = "Completed"

// Field limits applied before a record is written
const (
	maxSubjectLen = 100
	maxSenderLen  = 100
	maxTextLen    = 2000
)

// Row is the flattened form of an EmailRecord that sinks store
type Row struct {
	MessageID         string
	ThreadID          string
	Subject           string
	Sender            string
	SenderEmail       string
	ReceivedAt        time.Time
	Language          string
	Summary           string
	Commands          []string
	Tone              string
	TeamTags          []string
	ConfidenceScore   int
	ActionStatus      string
	DraftProfessional string
	DraftFriendly     string
	ProcessingStatus  string
	ProcessingError   string
	ProcessedAt       time.Time
}

// NewRow flattens a record, clipping long fields
func NewRow(r *core.EmailRecord, processedAt time.Time) *Row {
	commands := make([]string, len(r.DetectedCommands))
	for i, c := range r.DetectedCommands {
		commands[i] = string(c)
	}

	received := r.ReceivedTime
	if received.IsZero() {
		received = processedAt
	}

	subject := r.Subject
	if subject == "" {
		subject = "No Subject"
	}

	return &Row{
		MessageID:         r.MessageID,
		ThreadID:          r.ThreadID,
		Subject:           utils.Clip(subject, maxSubjectLen),
		Sender:            utils.Clip(r.Sender, maxSenderLen),
		SenderEmail:       SenderAddress(r.Sender),
		ReceivedAt:        received.UTC(),
		Language:          r.DetectedLanguage,
		Summary:           utils.Clip(r.Summary, maxTextLen),
		Commands:          commands,
		Tone:              string(r.Tone),
		TeamTags:          append([]string(nil), r.TeamTags...),
		ConfidenceScore:   r.ConfidenceScore,
		ActionStatus:      string(r.ActionStatus),
		DraftProfessional: utils.Clip(r.ReplyDraftProfessional, maxTextLen),
		DraftFriendly:     utils.Clip(r.ReplyDraftFriendly, maxTextLen),
		ProcessingStatus:  ProcessingCompleted,
		ProcessingError:   r.ProcessingError,
		ProcessedAt:       processedAt.UTC(),
	}
}

// SenderAddress returns the bare address of a From value, or "" when it does not parse
func SenderAddress(sender string) string {
	addr, err := mail.ParseAddress(sender)
	if err != nil {
		return ""
	}
	return utils.Clip(addr.Address, maxSenderLen)
}

func joinList(values []string) string {
	return strings.Join(values, ",")
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
