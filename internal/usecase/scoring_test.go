package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wavelead/crm-engine/internal/entity"
)

var scoreNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestComputeScoreDefaultRegistries(t *testing.T) {
	groups := entity.DefaultGroups("user-1")
	rules := entity.DefaultRules("user-1")

	recent := scoreNow.AddDate(0, 0, -2)
	lead := &entity.Lead{
		FirstName:            "Aoife",
		LastName:             "Byrne",
		ReplyReceived:        true,
		LastReplyDate:        &recent,
		PositiveSignalGroups: []string{"clients", "leads"},
	}

	result := ComputeScore(lead, groups, rules, scoreNow, ScoreConfig{})

	// groups: 25+15=40; rules: replied 25 + recent reply 15 + profile 10 = 50
	assert.Equal(t, 40, result.GroupComponent)
	assert.Equal(t, 50, result.EngagementComponent)
	assert.Equal(t, 90, result.Score)
	assert.Equal(t, entity.SegmentHot, result.Segment)
}

func TestComputeScoreClampsToHundred(t *testing.T) {
	groups := []*entity.WhatsAppGroup{
		{GroupName: "a", ScoreValue: 30},
		{GroupName: "b", ScoreValue: 30},
	}
	rules := []*entity.EngagementRule{
		{RuleType: entity.RuleBonus, Points: 80, Active: true, Condition: entity.TriggerCondition{Kind: entity.KindReplied}},
	}
	lead := &entity.Lead{ReplyReceived: true, PositiveSignalGroups: []string{"a", "b"}}

	result := ComputeScore(lead, groups, rules, scoreNow, ScoreConfig{})

	// Group component clamps to 50 before the final clamp.
	assert.Equal(t, 50, result.GroupComponent)
	assert.Equal(t, 100, result.Score)
}

func TestComputeScoreNeverNegative(t *testing.T) {
	rules := []*entity.EngagementRule{
		{RuleType: entity.RulePenalty, Points: -40, Active: true, Condition: entity.TriggerCondition{Kind: entity.KindNoResponseAfterContacts, Min: 3}},
	}
	lead := &entity.Lead{ContactCount: 6}

	result := ComputeScore(lead, nil, rules, scoreNow, ScoreConfig{})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, entity.SegmentDead, result.Segment)
}

func TestComputeScoreHardClampEngagement(t *testing.T) {
	rules := []*entity.EngagementRule{
		{RuleType: entity.RuleBonus, Points: 80, Active: true, Condition: entity.TriggerCondition{Kind: entity.KindReplied}},
	}
	lead := &entity.Lead{ReplyReceived: true}

	soft := ComputeScore(lead, nil, rules, scoreNow, ScoreConfig{})
	assert.Equal(t, 80, soft.EngagementComponent)

	hard := ComputeScore(lead, nil, rules, scoreNow, ScoreConfig{HardClampEngagement: true})
	assert.Equal(t, 50, hard.EngagementComponent)
	assert.Equal(t, 50, hard.Score)
}

func TestComputeScoreInactiveRulesIgnored(t *testing.T) {
	rules := []*entity.EngagementRule{
		{RuleType: entity.RuleBonus, Points: 25, Active: false, Condition: entity.TriggerCondition{Kind: entity.KindReplied}},
	}
	lead := &entity.Lead{ReplyReceived: true}

	result := ComputeScore(lead, nil, rules, scoreNow, ScoreConfig{})
	assert.Equal(t, 0, result.EngagementComponent)
}

func TestSegmentThresholds(t *testing.T) {
	cases := []struct {
		score   int
		segment entity.Segment
	}{
		{100, entity.SegmentHot},
		{70, entity.SegmentHot},
		{69, entity.SegmentWarm},
		{40, entity.SegmentWarm},
		{39, entity.SegmentCold},
		{1, entity.SegmentCold},
		{0, entity.SegmentDead},
	}
	for _, c := range cases {
		assert.Equal(t, c.segment, segmentFor(c.score, false), "score %d", c.score)
	}
}

func TestDoNotContactForcesDead(t *testing.T) {
	groups := entity.DefaultGroups("user-1")
	lead := &entity.Lead{
		DoNotContact:         true,
		ReplyReceived:        true,
		PositiveSignalGroups: []string{"clients", "leads", "old clients"},
	}

	result := ComputeScore(lead, groups, entity.DefaultRules("user-1"), scoreNow, ScoreConfig{})
	assert.Equal(t, entity.SegmentDead, result.Segment)
}

func TestGroupComponentExactMatchOnly(t *testing.T) {
	groups := []*entity.WhatsAppGroup{{GroupName: "clients", ScoreValue: 25}}

	lead := &entity.Lead{PositiveSignalGroups: []string{"Clients"}} // wrong case
	assert.Equal(t, 0, groupComponent(lead, groups))

	lead = &entity.Lead{PositiveSignalGroups: []string{"clients"}}
	assert.Equal(t, 25, groupComponent(lead, groups))
}
