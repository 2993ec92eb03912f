package engine

import (
	"context"
	"errors"
	"testing"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/models"
)

func TestLoadAllGroupsByGuildAndKeepsStoreOrder(t *testing.T) {
	store := newFakeStore()
	store.workflows = []database.Workflow{
		{ID: 1, GuildID: "guild-1", Name: "high", Priority: 10, TriggerType: models.EventMessageReceived},
		{ID: 2, GuildID: "guild-1", Name: "low", Priority: 1, TriggerType: models.EventMessageReceived},
		{ID: 3, GuildID: "guild-2", Name: "other", TriggerType: models.EventMemberJoin},
	}
	cache := NewRuleCache(store)

	if err := cache.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	rules := cache.Rules("guild-1")
	if len(rules) != 2 {
		t.Fatalf("guild-1 has %d rules, want 2", len(rules))
	}
	// The store delivers rules already sorted; the cache must not reorder.
	if rules[0].Workflow.ID != 1 || rules[1].Workflow.ID != 2 {
		t.Errorf("rule order = %d,%d, want 1,2", rules[0].Workflow.ID, rules[1].Workflow.ID)
	}
	if len(cache.Rules("guild-2")) != 1 {
		t.Errorf("guild-2 rules missing")
	}
	if cache.Rules("guild-3") != nil {
		t.Errorf("unknown guild should have nil rules")
	}
}

func TestLoadAllSkipsMalformedWorkflows(t *testing.T) {
	store := newFakeStore()
	store.workflows = []database.Workflow{
		{ID: 1, GuildID: "guild-1", TriggerType: models.EventMessageReceived, TriggerConfig: `{not json`},
		{ID: 2, GuildID: "guild-1", TriggerType: "no_such_trigger"},
		{ID: 3, GuildID: "guild-1", TriggerType: models.EventMessageReceived},
	}
	store.actions[3] = []database.WorkflowAction{
		{ID: 1, WorkflowID: 3, Type: models.ActionSendMessage, Config: `{"content":"hi"}`},
	}
	cache := NewRuleCache(store)

	if err := cache.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	rules := cache.Rules("guild-1")
	if len(rules) != 1 || rules[0].Workflow.ID != 3 {
		t.Fatalf("malformed workflows not skipped: %d rules", len(rules))
	}
	if _, ok := rules[0].Actions[0].Config.(*models.SendMessageAction); !ok {
		t.Errorf("action config not parsed to concrete shape: %T", rules[0].Actions[0].Config)
	}
}

func TestLoadAllSkipsWorkflowWithBadConditionRow(t *testing.T) {
	store := newFakeStore()
	store.workflows = []database.Workflow{
		{ID: 1, GuildID: "guild-1", TriggerType: models.EventMessageReceived},
	}
	store.conditions[1] = []database.WorkflowCondition{
		{ID: 1, WorkflowID: 1, Type: "no_such_condition"},
	}
	cache := NewRuleCache(store)

	if err := cache.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if cache.Rules("guild-1") != nil {
		t.Error("workflow with unparseable condition should be skipped whole")
	}
}

func TestLoadAllPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("db down")
	cache := NewRuleCache(store)

	if err := cache.LoadAll(context.Background()); err == nil {
		t.Fatal("LoadAll() expected error")
	}
}

func TestReloadGuildReplacesAndDeletes(t *testing.T) {
	store := newFakeStore()
	store.workflows = []database.Workflow{
		{ID: 1, GuildID: "guild-1", Name: "old", TriggerType: models.EventMessageReceived},
	}
	cache := NewRuleCache(store)
	if err := cache.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	store.workflows = []database.Workflow{
		{ID: 2, GuildID: "guild-1", Name: "new", TriggerType: models.EventMemberJoin},
	}
	if err := cache.ReloadGuild(context.Background(), "guild-1"); err != nil {
		t.Fatalf("ReloadGuild() error = %v", err)
	}
	rules := cache.Rules("guild-1")
	if len(rules) != 1 || rules[0].Workflow.ID != 2 {
		t.Fatalf("reload did not replace the guild entry: %+v", rules)
	}

	store.workflows = nil
	if err := cache.ReloadGuild(context.Background(), "guild-1"); err != nil {
		t.Fatalf("ReloadGuild() error = %v", err)
	}
	if cache.Rules("guild-1") != nil {
		t.Error("guild with no remaining rules should be dropped from the cache")
	}
}

func TestReloadGuildLeavesOtherGuildsAlone(t *testing.T) {
	store := newFakeStore()
	store.workflows = []database.Workflow{
		{ID: 1, GuildID: "guild-1", TriggerType: models.EventMessageReceived},
		{ID: 2, GuildID: "guild-2", TriggerType: models.EventMessageReceived},
	}
	cache := NewRuleCache(store)
	if err := cache.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	store.workflows = store.workflows[:1]
	if err := cache.ReloadGuild(context.Background(), "guild-1"); err != nil {
		t.Fatalf("ReloadGuild() error = %v", err)
	}
	if len(cache.Rules("guild-2")) != 1 {
		t.Error("reloading guild-1 must not touch guild-2")
	}
}
