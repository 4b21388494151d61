package core

import (
	"strings"
)

// Score floors for known-bad records
const (
	scoreSkipped     = 0
	scoreDraftError  = 15
	scoreNoAction    = 25
	scoreHumanReview = 35
	scoreBase        = 50
)

// qualityPhrases are politeness and closure markers rewarded in the professional draft
var qualityPhrases = []string{
	"thank you", "please find", "attached", "i've forwarded",
	"let us know", "happy to help", "best regards", "sincerely",
}

// specificCommands are intents precise enough to trust a drafted reply
var specificCommands = map[Command]bool{
	"send_invoice":     true,
	"schedule_demo":    true,
	"technical_issue":  true,
	"job_application":  true,
	"contract_request": true,
}

// Score computes the 0-100 readiness of a record's professional draft.
// Hard floors are checked before any additive signal.
func Score(r *EmailRecord) int {
	switch {
	case IsSkipMarker(r.ReplyDraftProfessional) && IsSkipMarker(r.ReplyDraftFriendly):
		return scoreSkipped
	case HasErrorMarker(r.ReplyDraftProfessional) || HasErrorMarker(r.ReplyDraftFriendly):
		return scoreDraftError
	case r.HasCommand(CommandNoAction):
		return scoreNoAction
	case r.HasCommand(CommandRequiresHumanReview):
		return scoreHumanReview
	}

	score := scoreBase
	draft := strings.ToLower(r.ReplyDraftProfessional)

	quality := 0
	for _, phrase := range qualityPhrases {
		if strings.Contains(draft, phrase) {
			quality++
		}
	}
	score += min(quality*8, 30)

	words := len(strings.Fields(r.ReplyDraftProfessional))
	switch {
	case words >= 20 && words <= 150:
		score += 15
	case words > 150 && words <= 300:
		score += 10
	}

	for _, c := range r.DetectedCommands {
		if specificCommands[c] {
			score += 10
			break
		}
	}

	switch r.Tone {
	case TonePositive, ToneNeutral:
		score += 5
	case ToneUrgent:
		score += 8
	}

	return clampScore(score)
}

func clampScore(score int) int {
	return max(0, min(score, 100))
}
