package engine

import (
	"context"
	"time"

	"go-workflow-engine/internal/database"
)

// Store is the durable side of the engine: rule definitions, cooldown
// records and execution logs. internal/database implements it; tests use an
// in-memory fake.
type Store interface {
	EnabledWorkflows(ctx context.Context) ([]database.Workflow, error)
	EnabledWorkflowsForGuild(ctx context.Context, guildID string) ([]database.Workflow, error)
	ConditionsFor(ctx context.Context, workflowID uint) ([]database.WorkflowCondition, error)
	ActionsFor(ctx context.Context, workflowID uint) ([]database.WorkflowAction, error)
	ActiveCooldown(ctx context.Context, workflowID uint, scope, targetID string, now time.Time) (*time.Time, error)
	InsertCooldown(ctx context.Context, cooldown *database.WorkflowCooldown) error
	PurgeExpiredCooldowns(ctx context.Context, now time.Time) error
	InsertExecution(ctx context.Context, execution *database.WorkflowExecution) error
	MarkTriggered(ctx context.Context, workflowID uint, at time.Time) error
}
