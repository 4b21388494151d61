package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomy_TeamTags(t *testing.T) {
	tax := DefaultTaxonomy()

	tests := []struct {
		name     string
		commands []Command
		want     []string
	}{
		{"support and finance", []Command{"technical_issue", "send_invoice"}, []string{TeamSupport, TeamFinance}},
		{"table order not input order", []Command{"send_invoice", "technical_issue"}, []string{TeamSupport, TeamFinance}},
		{"one team for many commands", []Command{"bug_report", "system_down"}, []string{TeamSupport}},
		{"unrouted command", []Command{"feature_request"}, []string{TeamGeneral}},
		{"meta command", []Command{CommandNoAction}, []string{TeamGeneral}},
		{"empty", nil, []string{TeamGeneral}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.TeamTags(tt.commands))
		})
	}
}

func TestDetermineActionStatus(t *testing.T) {
	tests := []struct {
		name   string
		record EmailRecord
		want   ActionStatus
	}{
		{
			name: "skip marker wins over everything",
			record: EmailRecord{
				DetectedCommands:       []Command{CommandSpamDetected},
				ReplyDraftProfessional: "[SKIPPED - spam_detected]",
				ReplyDraftFriendly:     "[SKIPPED - spam_detected]",
			},
			want: StatusSkipped,
		},
		{
			name: "no action is skipped",
			record: EmailRecord{
				DetectedCommands:       []Command{CommandNoAction},
				ReplyDraftProfessional: "[Reply Generation Error: x]",
				ConfidenceScore:        25,
			},
			want: StatusSkipped,
		},
		{
			name: "error draft",
			record: EmailRecord{
				DetectedCommands:       []Command{"send_invoice"},
				ReplyDraftProfessional: "[Reply Generation Error: timeout]",
				ConfidenceScore:        15,
			},
			want: StatusError,
		},
		{
			name: "human review regardless of score",
			record: EmailRecord{
				DetectedCommands: []Command{CommandRequiresHumanReview},
				ConfidenceScore:  95,
			},
			want: StatusNeedsReview,
		},
		{
			name:   "low confidence",
			record: EmailRecord{DetectedCommands: []Command{"follow_up"}, ConfidenceScore: 39},
			want:   StatusNeedsReview,
		},
		{
			name:   "ready at threshold",
			record: EmailRecord{DetectedCommands: []Command{"follow_up"}, ConfidenceScore: 80},
			want:   StatusReadyToSend,
		},
		{
			name:   "draft generated in between",
			record: EmailRecord{DetectedCommands: []Command{"follow_up"}, ConfidenceScore: 40},
			want:   StatusDraftGenerated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.record
			assert.Equal(t, tt.want, DetermineActionStatus(&r))
		})
	}
}

func TestFinalize(t *testing.T) {
	tax := DefaultTaxonomy()

	t.Run("scores and routes", func(t *testing.T) {
		r := &EmailRecord{
			DetectedCommands:       []Command{"send_invoice"},
			Tone:                   ToneNeutral,
			ReplyDraftProfessional: sixtyWordDraft,
			ReplyDraftFriendly:     "Hi!",
		}
		Finalize(tax, r)
		assert.Equal(t, 96, r.ConfidenceScore)
		assert.Equal(t, []string{TeamFinance}, r.TeamTags)
		assert.Equal(t, StatusReadyToSend, r.ActionStatus)
	})

	t.Run("failed record keeps zero score", func(t *testing.T) {
		r := &EmailRecord{ProcessingError: "analysis failed: boom", Tone: ToneNeutral}
		Finalize(tax, r)
		assert.Equal(t, 0, r.ConfidenceScore)
		assert.Equal(t, []Command{CommandNoAction}, r.DetectedCommands)
		assert.Equal(t, []string{TeamGeneral}, r.TeamTags)
		assert.Equal(t, StatusSkipped, r.ActionStatus)
	})

	t.Run("human review scenario", func(t *testing.T) {
		r := &EmailRecord{
			DetectedCommands:       []Command{CommandRequiresHumanReview},
			ReplyDraftProfessional: "We will look into this.",
			ReplyDraftFriendly:     "Looking into it!",
		}
		Finalize(tax, r)
		assert.Equal(t, 35, r.ConfidenceScore)
		assert.Equal(t, StatusNeedsReview, r.ActionStatus)
	})

	t.Run("error scenario", func(t *testing.T) {
		r := &EmailRecord{
			DetectedCommands:       []Command{"technical_issue"},
			ReplyDraftProfessional: "[Reply Generation Error: model timeout]",
			ReplyDraftFriendly:     "Hi!",
		}
		Finalize(tax, r)
		assert.Equal(t, 15, r.ConfidenceScore)
		assert.Equal(t, StatusError, r.ActionStatus)
	})
}

func TestFinalize_OrdinaryErrorWordMarksDraftAsError(t *testing.T) {
	r := &EmailRecord{
		DetectedCommands:       []Command{"technical_issue"},
		Tone:                   ToneNeutral,
		ReplyDraftProfessional: "Sorry about the error you saw, we have fixed it. Best regards",
		ReplyDraftFriendly:     "All fixed now!",
	}
	Finalize(DefaultTaxonomy(), r)

	assert.Equal(t, 15, r.ConfidenceScore)
	assert.Equal(t, StatusError, r.ActionStatus)
}

func TestFinalize_Idempotent(t *testing.T) {
	tax := DefaultTaxonomy()

	records := map[string]*EmailRecord{
		"ready": {
			DetectedCommands:       []Command{"send_invoice"},
			Tone:                   ToneNeutral,
			ReplyDraftProfessional: sixtyWordDraft,
			ReplyDraftFriendly:     "Hi!",
		},
		"multi team": {
			DetectedCommands:       []Command{"technical_issue", "send_invoice"},
			Tone:                   ToneUrgent,
			ReplyDraftProfessional: "We are on it.",
			ReplyDraftFriendly:     "On it!",
		},
		"skipped": {
			DetectedCommands:       []Command{CommandNoAction},
			ReplyDraftProfessional: SkipMarker([]Command{CommandNoAction}),
			ReplyDraftFriendly:     SkipMarker([]Command{CommandNoAction}),
		},
		"failed analysis": {
			DetectedCommands:       []Command{"send_invoice"},
			Tone:                   ToneNeutral,
			ReplyDraftProfessional: sixtyWordDraft,
			ReplyDraftFriendly:     "Hi!",
			ProcessingError:        "analysis failed: boom",
		},
	}

	for name, r := range records {
		t.Run(name, func(t *testing.T) {
			Finalize(tax, r)
			score, status := r.ConfidenceScore, r.ActionStatus
			teams := append([]string(nil), r.TeamTags...)
			commands := append([]Command(nil), r.DetectedCommands...)

			for i := 0; i < 3; i++ {
				Finalize(tax, r)
				assert.Equal(t, score, r.ConfidenceScore)
				assert.Equal(t, status, r.ActionStatus)
				assert.Equal(t, teams, r.TeamTags)
				assert.Equal(t, commands, r.DetectedCommands)
				assert.Equal(t, status, DetermineActionStatus(r))
				if r.ProcessingError == "" {
					assert.Equal(t, score, Score(r))
				}
			}
		})
	}

	assert.Equal(t, 0, records["failed analysis"].ConfidenceScore)
	assert.Equal(t, StatusNeedsReview, records["failed analysis"].ActionStatus)
}
