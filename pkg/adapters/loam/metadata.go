package loam

// Document kinds recognised in frontmatter.
const (
	KindPlan    = "plan"
	KindBranch  = "branch"
	KindActions = "actions"
)

// DocumentMetadata is the frontmatter of a Plotline document.
// A document declares either a plan (the default), a declarative branch,
// or a list of extra action names. The Markdown body of a plan document
// becomes its description.
type DocumentMetadata struct {
	Kind string `json:"kind" mapstructure:"kind"`
	Name string `json:"name" mapstructure:"name"`

	// Plan fields
	Type            string            `json:"type" mapstructure:"type"`
	Branches        []string          `json:"branches" mapstructure:"branches"`
	BranchesList    []string          `json:"branches_list" mapstructure:"branches_list"`
	StartCheckpoint string            `json:"start_checkpoint" mapstructure:"start_checkpoint"`
	FinishAction    string            `json:"finish_action" mapstructure:"finish_action"`
	ExitDict        map[string]string `json:"exit_dict" mapstructure:"exit_dict"`
	ChitchatDict    map[string]string `json:"chitchat_dict" mapstructure:"chitchat_dict"`
	// RequiredSlots values are type names; a single element list is shorthand for a list type.
	RequiredSlots map[string]any `json:"required_slots" mapstructure:"required_slots"`
	OptionalSlots []string       `json:"optional_slots" mapstructure:"optional_slots"`
	DetailsIntent []string       `json:"details_intent" mapstructure:"details_intent"`
	Rules         map[string]any `json:"rules" mapstructure:"rules"`
	Subject       string         `json:"subject" mapstructure:"subject"`

	// Branch fields
	Steps []DocumentStep `json:"steps" mapstructure:"steps"`

	// Actions fields
	Actions []string `json:"actions" mapstructure:"actions"`
}

// DocumentStep mirrors domain.BranchStep for frontmatter decoding.
type DocumentStep struct {
	When string   `json:"when" mapstructure:"when"`
	Do   []string `json:"do" mapstructure:"do"`
}
