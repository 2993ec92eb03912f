package engine

import (
	"context"
	"time"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/logging"
	"go-workflow-engine/internal/models"
)

// Engine is the dispatcher: it receives gateway events one at a time and
// drives matching, cooldown checks, condition evaluation, action execution
// and logging for every applicable rule of the event's guild.
type Engine struct {
	cache     *RuleCache
	cooldowns *CooldownManager
	evaluator *Evaluator
	executor  *Executor
	runlog    *ExecutionLogger
	store     Store
}

func New(store Store, discord Discord, webhook WebhookPoster, actionTimeout time.Duration) *Engine {
	render := NewRenderer()
	return &Engine{
		cache:     NewRuleCache(store),
		cooldowns: NewCooldownManager(store),
		evaluator: NewEvaluator(),
		executor:  NewExecutor(discord, webhook, render, actionTimeout),
		runlog:    NewExecutionLogger(store),
		store:     store,
	}
}

// Cache exposes the rule cache for reloads triggered from outside the
// dispatch path (startup, guild joins).
func (e *Engine) Cache() *RuleCache {
	return e.cache
}

// Cooldowns exposes the cooldown manager so main can start the sweep loop.
func (e *Engine) Cooldowns() *CooldownManager {
	return e.cooldowns
}

// HandleEvent accepts one gateway event without blocking: the full pipeline
// for the event runs in its own goroutine, so the receiving loop keeps up
// regardless of how slow any rule's actions are.
func (e *Engine) HandleEvent(event *models.Event) {
	if event == nil || event.GuildID == "" {
		return
	}
	go e.processEvent(event)
}

func (e *Engine) processEvent(event *models.Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic while processing %s event in guild %s: %v", event.Type, event.GuildID, r)
		}
	}()

	rules := e.cache.Rules(event.GuildID)
	if len(rules) == 0 {
		return
	}

	ctx := context.Background()

	// Rules are independent: a later rule is never gated on an earlier
	// rule's outcome.
	for _, rule := range rules {
		e.fireRule(ctx, rule, event)
	}
}

func (e *Engine) fireRule(ctx context.Context, rule *CachedRule, event *models.Event) {
	if !Matches(rule, event) {
		return
	}
	if e.cooldowns.IsOnCooldown(ctx, rule, event) {
		logging.Debug("Workflow %d skipped: on cooldown (guild %s)", rule.Workflow.ID, event.GuildID)
		return
	}
	if !e.evaluator.Evaluate(rule.Conditions, event) {
		logging.Debug("Workflow %d skipped: conditions failed (guild %s)", rule.Workflow.ID, event.GuildID)
		return
	}

	started := time.Now()
	outcomes, errActionID, execErr := e.executor.Execute(ctx, rule, event)
	duration := time.Since(started)

	// The cooldown reflects "rule attempted", so it is committed even when
	// actions failed.
	if err := e.cooldowns.Commit(ctx, rule, event); err != nil {
		logging.Error("Cooldown commit failed for workflow %d: %v", rule.Workflow.ID, err)
	}
	if err := e.store.MarkTriggered(ctx, rule.Workflow.ID, started); err != nil {
		logging.Error("Trigger counter update failed for workflow %d: %v", rule.Workflow.ID, err)
	}

	status := database.ExecutionSuccess
	errText := ""
	if execErr != nil {
		status = database.ExecutionFailed
		errText = execErr.Error()
		logging.Warn("Workflow %d (%s) failed after %d actions: %v",
			rule.Workflow.ID, rule.Workflow.Name, len(outcomes), execErr)
	} else {
		logging.Info("Workflow %d (%s) executed %d actions in %s",
			rule.Workflow.ID, rule.Workflow.Name, len(outcomes), duration)
	}

	e.runlog.Record(ctx, rule, event, status, duration, outcomes, errText, errActionID)
}
