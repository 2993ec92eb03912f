package engine

import (
	"context"
	"testing"
	"time"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/models"
)

func cooldownRule(scope string, seconds int) *CachedRule {
	return makeRule(database.Workflow{
		ID:              7,
		GuildID:         "guild-1",
		TriggerType:     models.EventMessageReceived,
		CooldownEnabled: true,
		CooldownScope:   scope,
		CooldownSeconds: seconds,
	}, &models.MessageTrigger{}, nil, nil)
}

func TestCooldownWindowPerUser(t *testing.T) {
	store := newFakeStore()
	cm := NewCooldownManager(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cm.now = func() time.Time { return now }

	rule := cooldownRule(models.ScopeUser, 60)
	event := messageEvent("hi")
	ctx := context.Background()

	if cm.IsOnCooldown(ctx, rule, event) {
		t.Fatal("fresh rule should not be on cooldown")
	}
	if err := cm.Commit(ctx, rule, event); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	now = now.Add(5 * time.Second)
	if !cm.IsOnCooldown(ctx, rule, event) {
		t.Error("second event within the window should be on cooldown")
	}

	// A different user has a different scope key.
	other := messageEvent("hi")
	other.UserID = "user-2"
	if cm.IsOnCooldown(ctx, rule, other) {
		t.Error("different user should not share the cooldown")
	}

	now = now.Add(60 * time.Second)
	if cm.IsOnCooldown(ctx, rule, event) {
		t.Error("rule should be eligible again after the window elapses")
	}
}

func TestCooldownServerScopeIgnoresEntity(t *testing.T) {
	store := newFakeStore()
	cm := NewCooldownManager(store)

	now := time.Now()
	cm.now = func() time.Time { return now }

	rule := cooldownRule(models.ScopeServer, 30)
	ctx := context.Background()

	if err := cm.Commit(ctx, rule, messageEvent("a")); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	other := messageEvent("b")
	other.UserID = "user-2"
	other.ChannelID = "chan-2"
	if !cm.IsOnCooldown(ctx, rule, other) {
		t.Fatal("server-scoped cooldown should cover every user and channel")
	}
}

func TestCooldownFallsThroughToStore(t *testing.T) {
	store := newFakeStore()
	cm := NewCooldownManager(store)

	now := time.Now()
	cm.now = func() time.Time { return now }

	rule := cooldownRule(models.ScopeUser, 60)
	event := messageEvent("hi")
	ctx := context.Background()

	// Durable record exists but the index is cold (e.g. after restart).
	store.cooldowns = append(store.cooldowns, database.WorkflowCooldown{
		WorkflowID: rule.Workflow.ID,
		GuildID:    "guild-1",
		Scope:      models.ScopeUser,
		TargetID:   event.UserID,
		ExpiresAt:  now.Add(30 * time.Second),
	})

	if !cm.IsOnCooldown(ctx, rule, event) {
		t.Fatal("durable cooldown should be honored on index miss")
	}

	// The miss should have populated the index.
	cm.mu.RLock()
	_, cached := cm.index[cooldownKey(rule.Workflow.ID, models.ScopeUser, event.UserID)]
	cm.mu.RUnlock()
	if !cached {
		t.Error("durable hit should populate the in-memory index")
	}
}

func TestCooldownStoreErrorDoesNotBlockFiring(t *testing.T) {
	store := newFakeStore()
	store.cooldownErr = errExternal
	cm := NewCooldownManager(store)

	rule := cooldownRule(models.ScopeUser, 60)
	if cm.IsOnCooldown(context.Background(), rule, messageEvent("hi")) {
		t.Fatal("a failed durable lookup should not report on-cooldown")
	}
}

func TestCooldownDisabledRuleNeverOnCooldown(t *testing.T) {
	store := newFakeStore()
	cm := NewCooldownManager(store)

	rule := cooldownRule(models.ScopeUser, 60)
	rule.Workflow.CooldownEnabled = false

	ctx := context.Background()
	if err := cm.Commit(ctx, rule, messageEvent("hi")); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if len(store.cooldowns) != 0 {
		t.Error("disabled cooldown should not produce durable records")
	}
	if cm.IsOnCooldown(ctx, rule, messageEvent("hi")) {
		t.Error("disabled cooldown should never report on-cooldown")
	}
}

func TestCooldownSweepPurgesExpired(t *testing.T) {
	store := newFakeStore()
	cm := NewCooldownManager(store)

	now := time.Now()
	cm.now = func() time.Time { return now }

	rule := cooldownRule(models.ScopeUser, 10)
	ctx := context.Background()
	if err := cm.Commit(ctx, rule, messageEvent("hi")); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	now = now.Add(time.Minute)
	cm.Sweep(ctx)

	if len(store.cooldowns) != 0 {
		t.Error("sweep should purge expired durable records")
	}
	cm.mu.RLock()
	indexLen := len(cm.index)
	cm.mu.RUnlock()
	if indexLen != 0 {
		t.Error("sweep should discard expired index entries")
	}
}
