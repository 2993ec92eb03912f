package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/logging"
	"go-workflow-engine/internal/models"
)

// CooldownManager rate-limits rule firings per scope key. The in-memory
// index is a write-through cache over the durable cooldown table: consulted
// first, populated on durable hits, never treated as the system of record.
type CooldownManager struct {
	mu    sync.RWMutex
	index map[string]time.Time
	store Store
	now   func() time.Time
}

func NewCooldownManager(store Store) *CooldownManager {
	return &CooldownManager{
		index: make(map[string]time.Time),
		store: store,
		now:   time.Now,
	}
}

// scopeTarget resolves the per-entity identifier for a rule's cooldown
// scope. Server scope ignores the entity entirely.
func scopeTarget(scope string, event *models.Event) string {
	switch scope {
	case models.ScopeUser:
		return event.UserID
	case models.ScopeChannel:
		return event.ChannelID
	default:
		return ""
	}
}

func cooldownKey(workflowID uint, scope, targetID string) string {
	return fmt.Sprintf("%d:%s:%s", workflowID, scope, targetID)
}

// IsOnCooldown reports whether the rule may not fire for this event's scope
// key. Checks the index first and falls through to the store on a miss.
func (cm *CooldownManager) IsOnCooldown(ctx context.Context, rule *CachedRule, event *models.Event) bool {
	if !rule.Workflow.CooldownEnabled || rule.Workflow.CooldownSeconds <= 0 {
		return false
	}

	scope := rule.Workflow.CooldownScope
	targetID := scopeTarget(scope, event)
	key := cooldownKey(rule.Workflow.ID, scope, targetID)
	now := cm.now()

	cm.mu.RLock()
	expiry, cached := cm.index[key]
	cm.mu.RUnlock()
	if cached && expiry.After(now) {
		return true
	}

	durableExpiry, err := cm.store.ActiveCooldown(ctx, rule.Workflow.ID, scope, targetID, now)
	if err != nil {
		logging.Error("Cooldown lookup failed for workflow %d: %v", rule.Workflow.ID, err)
		return false
	}
	if durableExpiry == nil {
		return false
	}

	cm.mu.Lock()
	cm.index[key] = *durableExpiry
	cm.mu.Unlock()
	return true
}

// Commit records a new cooldown after a firing completes. Called regardless
// of action success: the cooldown reflects "rule attempted".
func (cm *CooldownManager) Commit(ctx context.Context, rule *CachedRule, event *models.Event) error {
	if !rule.Workflow.CooldownEnabled || rule.Workflow.CooldownSeconds <= 0 {
		return nil
	}

	scope := rule.Workflow.CooldownScope
	targetID := scopeTarget(scope, event)
	expiry := cm.now().Add(time.Duration(rule.Workflow.CooldownSeconds) * time.Second)

	if err := cm.store.InsertCooldown(ctx, &database.WorkflowCooldown{
		WorkflowID: rule.Workflow.ID,
		GuildID:    rule.Workflow.GuildID,
		Scope:      scope,
		TargetID:   targetID,
		ExpiresAt:  expiry,
	}); err != nil {
		return err
	}

	cm.mu.Lock()
	cm.index[cooldownKey(rule.Workflow.ID, scope, targetID)] = expiry
	cm.mu.Unlock()
	return nil
}

// Sweep purges expired cooldowns from both the durable table and the index.
func (cm *CooldownManager) Sweep(ctx context.Context) {
	now := cm.now()

	if err := cm.store.PurgeExpiredCooldowns(ctx, now); err != nil {
		logging.Error("Cooldown purge failed: %v", err)
	}

	cm.mu.Lock()
	for key, expiry := range cm.index {
		if !expiry.After(now) {
			delete(cm.index, key)
		}
	}
	cm.mu.Unlock()
}

// Run sweeps on a fixed interval until stop closes. beat, when set, is
// called after each sweep for watchdog heartbeating.
func (cm *CooldownManager) Run(interval time.Duration, stop <-chan struct{}, beat func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cm.Sweep(context.Background())
			if beat != nil {
				beat()
			}
		}
	}
}
