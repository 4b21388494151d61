package sink

import (
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2024, 9, 9, 12, 0, 0, 0, time.UTC)

func testRecord(id string) *core.EmailRecord {
	return &core.EmailRecord{
		ThreadID:               "thread-" + id,
		MessageID:              id,
		Subject:                "Invoice for March",
		Sender:                 "Ana Lopez <ana@example.com>",
		ReceivedTime:           time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
		DetectedLanguage:       "Spanish",
		Summary:                "Customer asks for the March invoice.",
		DetectedCommands:       []core.Command{"send_invoice", "billing_question"},
		Tone:                   core.ToneNeutral,
		ReplyDraftProfessional: "Dear Ana, please find the invoice attached.",
		ReplyDraftFriendly:     "Hi Ana, here it is!",
		ConfidenceScore:        96,
		TeamTags:               []string{"Finance", "Support"},
		ActionStatus:           core.StatusReadyToSend,
	}
}

func TestNewRow(t *testing.T) {
	r := testRecord("m1")
	r.Subject = strings.Repeat("s", 150)
	r.Summary = strings.Repeat("é", 2500)

	row := NewRow(r, fixedNow)

	assert.Equal(t, "m1", row.MessageID)
	assert.Len(t, []rune(row.Subject), 100)
	assert.Len(t, []rune(row.Summary), 2000)
	assert.Equal(t, "ana@example.com", row.SenderEmail)
	assert.Equal(t, []string{"send_invoice", "billing_question"}, row.Commands)
	assert.Equal(t, ProcessingCompleted, row.ProcessingStatus)
	assert.Equal(t, fixedNow, row.ProcessedAt)
	assert.Equal(t, "Ready to Send", row.ActionStatus)
}

func TestNewRow_Defaults(t *testing.T) {
	r := testRecord("m2")
	r.Subject = ""
	r.ReceivedTime = time.Time{}

	row := NewRow(r, fixedNow)
	assert.Equal(t, "No Subject", row.Subject)
	assert.Equal(t, fixedNow, row.ReceivedAt)
}

func TestSenderAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ana Lopez <ana@example.com>", "ana@example.com"},
		{"bob@example.com", "bob@example.com"},
		{"Support Team", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SenderAddress(tt.in), tt.in)
	}
}
