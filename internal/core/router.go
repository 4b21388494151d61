package core

// Confidence thresholds for action status
const (
	reviewThreshold = 40
	readyThreshold  = 80
)

// TeamTags returns the teams whose routed commands intersect commands, in routing
// table order. Falls back to the catch-all team.
func (t *Taxonomy) TeamTags(commands []Command) []string {
	present := make(map[Command]bool, len(commands))
	for _, c := range commands {
		present[c] = true
	}

	var teams []string
	for _, route := range t.routes {
		for _, c := range route.Commands {
			if present[c] {
				teams = append(teams, route.Team)
				break
			}
		}
	}

	if len(teams) == 0 {
		return []string{TeamGeneral}
	}
	return teams
}

// DetermineActionStatus classifies a scored record. The order of checks is the tie-break rule.
func DetermineActionStatus(r *EmailRecord) ActionStatus {
	switch {
	case IsSkipMarker(r.ReplyDraftProfessional) || IsSkipMarker(r.ReplyDraftFriendly) ||
		r.HasCommand(CommandNoAction):
		return StatusSkipped
	case HasErrorMarker(r.ReplyDraftProfessional) || HasErrorMarker(r.ReplyDraftFriendly):
		return StatusError
	case r.HasCommand(CommandRequiresHumanReview) || r.ConfidenceScore < reviewThreshold:
		return StatusNeedsReview
	case r.ConfidenceScore >= readyThreshold:
		return StatusReadyToSend
	default:
		return StatusDraftGenerated
	}
}

// Finalize scores and routes an analyzed record. Records that failed analysis keep a zero score.
func Finalize(tax *Taxonomy, r *EmailRecord) {
	if r.ProcessingError == "" {
		r.ConfidenceScore = Score(r)
	} else {
		r.ConfidenceScore = 0
	}
	if len(r.DetectedCommands) == 0 {
		r.DetectedCommands = []Command{CommandNoAction}
	}
	r.TeamTags = tax.TeamTags(r.DetectedCommands)
	r.ActionStatus = DetermineActionStatus(r)
}
