package platformrule

import "time"

const maxDescriptionLen = 256

// Rule is a platform-wide configuration entry keyed by a unique string key.
// RuleData holds an arbitrary jsonb document interpreted by the consumer of
// the rule.
type Rule struct {
	ID          int                    `db:"id" json:"id"`
	Key         string                 `db:"key" json:"key"`
	RuleData    map[string]interface{} `db:"rule_data" json:"rule_data,omitempty"`
	Description *string                `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updated_at"`
}
