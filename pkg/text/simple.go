package text

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var _ TextReplacer = (*SimpleTextReplacer)(nil)

// SimpleTextReplacer implements TextReplacer using basic string replacement
type SimpleTextReplacer struct{}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{}
}

// Replace implements TextReplacer.Replace. Filters are matched against the
// original name, so an earlier rule cannot change which later rules apply.
func (r *SimpleTextReplacer) Replace(ctx context.Context, name string, rules []ReplacementRule) (*ReplacementResult, error) {
	result := &ReplacementResult{
		Original: name,
		Modified: name,
	}

	current := name
	for _, rule := range rules {
		if rule.FromText == "" {
			continue
		}

		if rule.NameFilterGlob != "" {
			matched, err := doublestar.Match(rule.NameFilterGlob, name)
			if err != nil {
				return nil, errors.Errorf("matching %q against %q: %w", name, rule.NameFilterGlob, err)
			}
			if !matched {
				zerolog.Ctx(ctx).Trace().Str("name", name).Str("filter", rule.NameFilterGlob).Msg("rule filtered out")
				continue
			}
		}

		next := strings.ReplaceAll(current, rule.FromText, rule.ToText)
		if next != current {
			result.WasModified = true
			result.ReplacementCount += strings.Count(current, rule.FromText)
		}
		current = next
	}

	result.Modified = current
	return result, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from is required", i)
		}
		if rule.NameFilterGlob != "" && !doublestar.ValidatePattern(rule.NameFilterGlob) {
			return errors.Errorf("rule %d: filter %q is not a valid pattern", i, rule.NameFilterGlob)
		}
	}
	return nil
}
