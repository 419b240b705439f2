package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/model"
)

func validConfig(ruleCfgs ...config.RuleConfig) *config.Config {
	return &config.Config{
		Rules: ruleCfgs,
		Categories: config.CategoryConfig{
			Default: string(model.CategoryLowPriority),
		},
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		rules     []config.RuleConfig
		wantRules int
		wantErr   bool
	}{
		{
			name:      "empty ruleset is valid",
			wantRules: 0,
		},
		{
			name: "all rule types compile",
			rules: []config.RuleConfig{
				{Name: "vip", Type: "sender", Category: "Urgent", Senders: []string{"boss@corp.com"}},
				{Name: "asap", Type: "keyword", Category: "Urgent", Keywords: []string{"asap"}},
				{Name: "stale", Type: "age", Category: "Important", OlderThan: 48 * time.Hour},
			},
			wantRules: 3,
		},
		{
			name: "unknown rule type is fatal",
			rules: []config.RuleConfig{
				{Name: "weird", Type: "regex", Category: "Urgent"},
			},
			wantErr: true,
		},
		{
			name: "sender rule without senders is fatal",
			rules: []config.RuleConfig{
				{Name: "vip", Type: "sender", Category: "Urgent"},
			},
			wantErr: true,
		},
		{
			name: "keyword rule without keywords is fatal",
			rules: []config.RuleConfig{
				{Name: "asap", Type: "keyword", Category: "Urgent"},
			},
			wantErr: true,
		},
		{
			name: "age rule without duration is fatal",
			rules: []config.RuleConfig{
				{Name: "stale", Type: "age", Category: "Important"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ruleset, err := Compile(validConfig(tt.rules...))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ruleset.Rules, tt.wantRules)
			assert.Equal(t, model.CategoryLowPriority, ruleset.Default)
		})
	}
}

func TestSenderRuleMatching(t *testing.T) {
	ruleset, err := Compile(validConfig(config.RuleConfig{
		Name: "vip", Type: "sender", Category: "Urgent",
		Senders: []string{"boss@corp.com", "@alerts.example.com"},
	}))
	require.NoError(t, err)
	rule := ruleset.Rules[0]

	now := time.Now()
	assert.True(t, rule.Matches(model.Email{Sender: "Boss <BOSS@CORP.COM>"}, now))
	assert.True(t, rule.Matches(model.Email{Sender: "pager@alerts.example.com"}, now))
	assert.False(t, rule.Matches(model.Email{Sender: "noreply@shop.example"}, now))
}

func TestKeywordRuleMatching(t *testing.T) {
	ruleset, err := Compile(validConfig(config.RuleConfig{
		Name: "asap", Type: "keyword", Category: "Urgent",
		Keywords: []string{"urgent", "asap"},
	}))
	require.NoError(t, err)
	rule := ruleset.Rules[0]

	now := time.Now()
	assert.True(t, rule.Matches(model.Email{Subject: "URGENT: server down"}, now))
	assert.True(t, rule.Matches(model.Email{Body: "need this asap please"}, now))
	assert.False(t, rule.Matches(model.Email{Subject: "lunch?"}, now))
}

func TestAgeRuleMatching(t *testing.T) {
	ruleset, err := Compile(validConfig(config.RuleConfig{
		Name: "stale", Type: "age", Category: "Important",
		OlderThan: 48 * time.Hour,
	}))
	require.NoError(t, err)
	rule := ruleset.Rules[0]

	now := time.Now()
	assert.True(t, rule.Matches(model.Email{ReceivedAt: now.Add(-72 * time.Hour)}, now))
	assert.False(t, rule.Matches(model.Email{ReceivedAt: now.Add(-time.Hour)}, now))
}
