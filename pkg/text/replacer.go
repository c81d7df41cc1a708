package text

import "context"

// ReplacementRule rewrites part of a name
type ReplacementRule struct {
	// FromText is the text to replace
	FromText string `yaml:"from" json:"from" hcl:"from"`

	// ToText is the replacement text
	ToText string `yaml:"to" json:"to" hcl:"to"`

	// NameFilterGlob limits the rule to names matching a doublestar pattern; empty matches every name
	NameFilterGlob string `yaml:"filter,omitempty" json:"filter,omitempty" hcl:"filter,optional"`
}

// ReplacementResult contains the results of applying rules to one name
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	Original string
	Modified string
}

// TextReplacer defines the interface for rewriting names
type TextReplacer interface {
	// Replace applies every rule whose filter matches name, in order
	Replace(ctx context.Context, name string, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
