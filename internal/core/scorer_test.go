package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		record EmailRecord
		want   int
	}{
		{
			name: "both drafts skipped",
			record: EmailRecord{
				DetectedCommands:       []Command{CommandSpamDetected},
				ReplyDraftProfessional: "[SKIPPED - spam_detected]",
				ReplyDraftFriendly:     "[SKIPPED - spam_detected]",
			},
			want: 0,
		},
		{
			name: "error marker in a draft",
			record: EmailRecord{
				DetectedCommands:       []Command{"send_invoice"},
				ReplyDraftProfessional: "[Reply Generation Error: timeout]",
				ReplyDraftFriendly:     "Sure, here it is.",
			},
			want: 15,
		},
		{
			name: "error marker matched case-insensitively",
			record: EmailRecord{
				DetectedCommands:       []Command{"bug_report"},
				ReplyDraftProfessional: "We fixed the error you reported.",
				ReplyDraftFriendly:     "All good now.",
			},
			want: 15,
		},
		{
			name: "no action",
			record: EmailRecord{
				DetectedCommands:       []Command{CommandNoAction},
				ReplyDraftProfessional: "Thanks",
				ReplyDraftFriendly:     "Thanks",
			},
			want: 25,
		},
		{
			name: "human review",
			record: EmailRecord{
				DetectedCommands:       []Command{"legal_inquiry", CommandRequiresHumanReview},
				ReplyDraftProfessional: "Thank you, best regards",
				ReplyDraftFriendly:     "Thanks!",
			},
			want: 35,
		},
		{
			name: "specific command with a well sized polite draft",
			record: EmailRecord{
				DetectedCommands:       []Command{"send_invoice"},
				Tone:                   ToneNeutral,
				ReplyDraftProfessional: sixtyWordDraft,
				ReplyDraftFriendly:     "Hi!",
			},
			want: 96,
		},
		{
			name: "quality bonus capped at thirty",
			record: EmailRecord{
				DetectedCommands: []Command{"general_question"},
				Tone:             ToneNegative,
				ReplyDraftProfessional: "Thank you. Please find attached the file. I've forwarded it. " +
					"Let us know, happy to help. Best regards, sincerely",
				ReplyDraftFriendly: "Hi!",
			},
			// 50 + 30 + 0 words bonus (19 words) + 0 + 0
			want: 80,
		},
		{
			name: "long draft and urgent tone",
			record: EmailRecord{
				DetectedCommands:       []Command{"system_down"},
				Tone:                   ToneUrgent,
				ReplyDraftProfessional: strings.Repeat("word ", 200),
				ReplyDraftFriendly:     "On it.",
			},
			want: 68,
		},
		{
			name: "very long draft gets no length bonus",
			record: EmailRecord{
				DetectedCommands:       []Command{"system_down"},
				Tone:                   ToneConfused,
				ReplyDraftProfessional: strings.Repeat("word ", 301),
				ReplyDraftFriendly:     "On it.",
			},
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.record
			assert.Equal(t, tt.want, Score(&r))
		})
	}
}

func TestScore_StaysInRange(t *testing.T) {
	r := EmailRecord{
		DetectedCommands: []Command{"send_invoice", "schedule_demo"},
		Tone:             ToneUrgent,
		ReplyDraftProfessional: "Thank you. Please find attached. I've forwarded. Let us know. " +
			"Happy to help. Best regards. Sincerely. " + strings.Repeat("more ", 40),
		ReplyDraftFriendly: "ok",
	}
	score := Score(&r)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
	assert.Equal(t, 100, score)
}
