package engine

import (
	"context"
	"sync"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/logging"
	"go-workflow-engine/internal/models"
)

// CachedRule is one workflow with its condition and action rows loaded and
// their config blobs parsed into concrete shapes.
type CachedRule struct {
	Workflow      database.Workflow
	TriggerConfig interface{}
	Conditions    []CachedCondition
	Actions       []CachedAction
}

type CachedCondition struct {
	Row    database.WorkflowCondition
	Config interface{}
}

type CachedAction struct {
	Row    database.WorkflowAction
	Config interface{}
}

// RuleCache maps guild ID to that guild's enabled rules in priority order.
// Reloads replace a guild's slice wholesale, so a dispatch already holding
// the old slice keeps a consistent snapshot.
type RuleCache struct {
	mu      sync.RWMutex
	byGuild map[string][]*CachedRule
	store   Store
}

func NewRuleCache(store Store) *RuleCache {
	return &RuleCache{
		byGuild: make(map[string][]*CachedRule),
		store:   store,
	}
}

// LoadAll replaces the entire cache from the store.
func (c *RuleCache) LoadAll(ctx context.Context) error {
	workflows, err := c.store.EnabledWorkflows(ctx)
	if err != nil {
		return err
	}

	byGuild := make(map[string][]*CachedRule)
	for i := range workflows {
		rule, err := c.buildRule(ctx, &workflows[i])
		if err != nil {
			logging.Warn("Skipping workflow %d (%s): %v", workflows[i].ID, workflows[i].Name, err)
			continue
		}
		byGuild[rule.Workflow.GuildID] = append(byGuild[rule.Workflow.GuildID], rule)
	}

	c.mu.Lock()
	c.byGuild = byGuild
	c.mu.Unlock()

	logging.Info("Rule cache loaded: %d workflows across %d guilds", len(workflows), len(byGuild))
	return nil
}

// ReloadGuild replaces a single guild's cache entry.
func (c *RuleCache) ReloadGuild(ctx context.Context, guildID string) error {
	workflows, err := c.store.EnabledWorkflowsForGuild(ctx, guildID)
	if err != nil {
		return err
	}

	rules := make([]*CachedRule, 0, len(workflows))
	for i := range workflows {
		rule, err := c.buildRule(ctx, &workflows[i])
		if err != nil {
			logging.Warn("Skipping workflow %d (%s): %v", workflows[i].ID, workflows[i].Name, err)
			continue
		}
		rules = append(rules, rule)
	}

	c.mu.Lock()
	if len(rules) == 0 {
		delete(c.byGuild, guildID)
	} else {
		c.byGuild[guildID] = rules
	}
	c.mu.Unlock()

	logging.Info("Rule cache reloaded for guild %s: %d workflows", guildID, len(rules))
	return nil
}

// Rules returns the guild's rules in priority order. Nil when the guild has
// none. The returned slice is never mutated after publication.
func (c *RuleCache) Rules(guildID string) []*CachedRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byGuild[guildID]
}

func (c *RuleCache) buildRule(ctx context.Context, workflow *database.Workflow) (*CachedRule, error) {
	triggerConfig, err := models.ParseTriggerConfig(workflow.TriggerType, []byte(workflow.TriggerConfig))
	if err != nil {
		return nil, err
	}

	conditionRows, err := c.store.ConditionsFor(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}
	conditions := make([]CachedCondition, 0, len(conditionRows))
	for _, row := range conditionRows {
		cfg, err := models.ParseConditionConfig(row.Type, []byte(row.Config))
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, CachedCondition{Row: row, Config: cfg})
	}

	actionRows, err := c.store.ActionsFor(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}
	actions := make([]CachedAction, 0, len(actionRows))
	for _, row := range actionRows {
		cfg, err := models.ParseActionConfig(row.Type, []byte(row.Config))
		if err != nil {
			return nil, err
		}
		actions = append(actions, CachedAction{Row: row, Config: cfg})
	}

	return &CachedRule{
		Workflow:      *workflow,
		TriggerConfig: triggerConfig,
		Conditions:    conditions,
		Actions:       actions,
	}, nil
}
