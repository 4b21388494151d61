package core

import (
	"time"
)

// NoTextContent is the body placeholder used when no text part could be extracted
const NoTextContent = "[No text content extracted]"

// DefaultLanguage is assumed whenever language detection is skipped or fails
const DefaultLanguage = "English"

// SupportedLanguages are the languages the prompts are written to handle
var SupportedLanguages = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese", "Dutch", "Chinese", "Arabic",
}

// RawEmail represents an email as supplied by a message source
type RawEmail struct {
	ID         string
	ThreadID   string
	Subject    string
	Sender     string
	ReceivedAt time.Time
	Body       string
	RawHeaders map[string]string
}

// Tone is the detected emotional tone of an email
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
	ToneNegative Tone = "negative"
	ToneUrgent   Tone = "urgent"
	ToneConfused Tone = "confused"
)

// Tones lists the valid tones
var Tones = []Tone{TonePositive, ToneNeutral, ToneNegative, ToneUrgent, ToneConfused}

// ActionStatus is the human-facing readiness of an analyzed email
type ActionStatus string

const (
	StatusSkipped        ActionStatus = "Skipped"
	StatusError          ActionStatus = "Error"
	StatusNeedsReview    ActionStatus = "Needs Review"
	StatusReadyToSend    ActionStatus = "Ready to Send"
	StatusDraftGenerated ActionStatus = "Draft Generated"
)

// EmailRecord is one email under analysis together with everything derived from it
type EmailRecord struct {
	ThreadID               string            `json:"thread_id"`
	MessageID              string            `json:"message_id"`
	Subject                string            `json:"subject"`
	Sender                 string            `json:"sender"`
	ReceivedTime           time.Time         `json:"received_time"`
	Body                   string            `json:"body,omitempty"`
	RawHeaders             map[string]string `json:"raw_headers,omitempty"`
	DetectedLanguage       string            `json:"detected_language"`
	Summary                string            `json:"summary"`
	DetectedCommands       []Command         `json:"detected_commands"`
	Tone                   Tone              `json:"tone"`
	ReplyDraftProfessional string            `json:"reply_draft_1"`
	ReplyDraftFriendly     string            `json:"reply_draft_2"`
	ConfidenceScore        int               `json:"confidence_score"`
	TeamTags               []string          `json:"team_tags"`
	ActionStatus           ActionStatus      `json:"action_status"`
	ProcessingError        string            `json:"processing_error,omitempty"`
}

// NewEmailRecord seeds a record from a raw email
func NewEmailRecord(raw *RawEmail) *EmailRecord {
	return &EmailRecord{
		ThreadID:         raw.ThreadID,
		MessageID:        raw.ID,
		Subject:          raw.Subject,
		Sender:           raw.Sender,
		ReceivedTime:     raw.ReceivedAt,
		Body:             raw.Body,
		RawHeaders:       raw.RawHeaders,
		DetectedLanguage: DefaultLanguage,
		Tone:             ToneNeutral,
	}
}

// HasCommand reports whether the record carries the given command
func (r *EmailRecord) HasCommand(c Command) bool {
	for _, rc := range r.DetectedCommands {
		if rc == c {
			return true
		}
	}
	return false
}

// Redacted returns a copy without body and raw headers for transport
func (r *EmailRecord) Redacted() *EmailRecord {
	cp := *r
	cp.Body = ""
	cp.RawHeaders = nil
	return &cp
}

// SyncReport summarises a best-effort sink run
type SyncReport struct {
	Sink      string `json:"sink"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Success is true when every record was persisted
func (s SyncReport) Success() bool {
	return s.Succeeded == s.Attempted
}

// BatchResult is the aggregate over one pipeline run
type BatchResult struct {
	RunID               string         `json:"run_id"`
	Success             bool           `json:"success"`
	Error               string         `json:"error,omitempty"`
	Message             string         `json:"message,omitempty"`
	ProcessedCount      int            `json:"processed_count"`
	LanguageSet         []string       `json:"languages_detected"`
	CommandFrequency    Frequency      `json:"commands_summary"`
	ConfidenceHistogram Frequency      `json:"confidence_distribution"`
	ToneFrequency       Frequency      `json:"tone_distribution"`
	TeamFrequency       Frequency      `json:"emails_by_team"`
	HighPriorityCount   int            `json:"high_priority_count"`
	NeedsReviewCount    int            `json:"needs_review_count"`
	ElapsedTime         time.Duration  `json:"-"`
	ProcessingSeconds   float64        `json:"processing_time"`
	ProcessedAt         time.Time      `json:"processed_at"`
	SinkSync            *SyncReport    `json:"sink_sync,omitempty"`
	Emails              []*EmailRecord `json:"emails"`
}

// Redacted returns a copy whose records carry no body or raw headers
func (b *BatchResult) Redacted() *BatchResult {
	cp := *b
	cp.Emails = make([]*EmailRecord, len(b.Emails))
	for i, e := range b.Emails {
		cp.Emails[i] = e.Redacted()
	}
	return &cp
}
