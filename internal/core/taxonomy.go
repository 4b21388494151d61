package core

// Command is a business intent label from the command taxonomy
type Command string

// Meta commands with special meaning in the pipeline
const (
	CommandNoAction            Command = "no_action"
	CommandRequiresHumanReview Command = "requires_human_review"
	CommandSpamDetected        Command = "spam_detected"
)

// CommandGroup is one business domain of the taxonomy
type CommandGroup struct {
	Name     string
	Commands []Command
}

// commandGroups is the ordered command catalog. Groups are disjoint.
var commandGroups = []CommandGroup{
	{Name: "support", Commands: []Command{
		"billing_question", "pricing_request", "general_question", "complaint",
		"feature_request", "technical_issue", "bug_report", "access_request",
		"reset_password", "security_alert", "system_down", "customer_testimonial",
	}},
	{Name: "sales", Commands: []Command{
		"schedule_demo", "send_proposal", "follow_up", "renew_contract",
		"custom_plan_request", "partnership_request", "confirm_availability",
	}},
	{Name: "operations", Commands: []Command{
		"send_invoice", "shipping_issue", "delivery_update_request",
		"return_request", "inventory_request", "account_closure",
		"update_contact", "change_account_details", "duplicate_request",
	}},
	{Name: "hr", Commands: []Command{
		"job_application", "referral_submission", "interview_schedule_request",
		"cv_update_request", "hr_query", "employee_onboarding",
	}},
	{Name: "legal", Commands: []Command{
		"legal_inquiry", "contract_request", "privacy_policy_question",
		"data_deletion_request", "compliance_audit", "gdpr_request",
	}},
	{Name: "marketing", Commands: []Command{
		"unsubscribe", "feedback_positive", "event_registration",
		"press_inquiry", "marketing_collaboration", "content_request",
	}},
	{Name: "documents", Commands: []Command{
		"file_request", "request_report", "request_presentation",
		"send_agreement", "document_approval", "data_export_request",
	}},
	{Name: "internal", Commands: []Command{
		"forward_to_support", "escalate_to_manager", "schedule_meeting",
		"project_update", "budget_request", "resource_allocation",
	}},
	{Name: "meta", Commands: []Command{
		CommandNoAction, CommandRequiresHumanReview, CommandSpamDetected,
	}},
}

// Team names used for routing
const (
	TeamSales      = "Sales"
	TeamSupport    = "Support"
	TeamHR         = "HR"
	TeamFinance    = "Finance"
	TeamLegal      = "Legal"
	TeamOperations = "Operations"
	TeamMarketing  = "Marketing"
	TeamGeneral    = "General"
)

// TeamRoute maps one team to the commands it handles
type TeamRoute struct {
	Team     string
	Commands []Command
}

// teamRoutes is evaluated in order, so team tags come out in this order.
var teamRoutes = []TeamRoute{
	{Team: TeamSales, Commands: []Command{
		"schedule_demo", "send_proposal", "custom_plan_request",
		"partnership_request", "confirm_availability", "renew_contract",
	}},
	{Team: TeamSupport, Commands: []Command{
		"technical_issue", "bug_report", "access_request", "reset_password",
		"security_alert", "system_down", "general_question",
	}},
	{Team: TeamHR, Commands: []Command{
		"job_application", "referral_submission", "interview_schedule_request",
		"cv_update_request", "hr_query", "employee_onboarding",
	}},
	{Team: TeamFinance, Commands: []Command{
		"billing_question", "send_invoice", "pricing_request",
		"account_closure", "budget_request",
	}},
	{Team: TeamLegal, Commands: []Command{
		"legal_inquiry", "contract_request", "privacy_policy_question",
		"data_deletion_request", "compliance_audit", "gdpr_request",
	}},
	{Team: TeamOperations, Commands: []Command{
		"shipping_issue", "delivery_update_request", "return_request",
		"inventory_request", "resource_allocation",
	}},
	{Team: TeamMarketing, Commands: []Command{
		"unsubscribe", "event_registration", "press_inquiry",
		"marketing_collaboration", "content_request",
	}},
}

// Taxonomy is the read-only command catalog together with the team routing table
type Taxonomy struct {
	groups  []CommandGroup
	ordered []Command
	index   map[Command]int
	routes  []TeamRoute
}

// DefaultTaxonomy returns the built-in catalog and routing table
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(commandGroups, teamRoutes)
}

// NewTaxonomy builds a taxonomy from groups and routes. Duplicate commands keep their first position.
func NewTaxonomy(groups []CommandGroup, routes []TeamRoute) *Taxonomy {
	t := &Taxonomy{
		groups: groups,
		index:  make(map[Command]int),
		routes: routes,
	}
	for _, g := range groups {
		for _, c := range g.Commands {
			if _, ok := t.index[c]; ok {
				continue
			}
			t.index[c] = len(t.ordered)
			t.ordered = append(t.ordered, c)
		}
	}
	return t
}

// Contains reports whether the command belongs to the taxonomy
func (t *Taxonomy) Contains(c Command) bool {
	_, ok := t.index[c]
	return ok
}

// Commands returns the catalog in declaration order
func (t *Taxonomy) Commands() []Command {
	out := make([]Command, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Groups returns the catalog grouped by business domain
func (t *Taxonomy) Groups() []CommandGroup {
	return t.groups
}

// Routes returns the team routing table
func (t *Taxonomy) Routes() []TeamRoute {
	return t.routes
}

// Len returns the number of commands in the catalog
func (t *Taxonomy) Len() int {
	return len(t.ordered)
}
