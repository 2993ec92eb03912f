package engine

import (
	"context"
	"encoding/json"
	"time"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/logging"
	"go-workflow-engine/internal/models"
)

// ExecutionLogger persists exactly one record per firing. Persistence
// failures are logged and swallowed: the firing already happened, and a
// broken log write must not disturb the dispatcher.
type ExecutionLogger struct {
	store Store
}

func NewExecutionLogger(store Store) *ExecutionLogger {
	return &ExecutionLogger{store: store}
}

// Record writes the firing's summary. actionsExecuted counts successful
// outcomes only; errActionID identifies the first failing action on failure.
func (el *ExecutionLogger) Record(ctx context.Context, rule *CachedRule, event *models.Event,
	status string, duration time.Duration, outcomes []ActionOutcome, errText string, errActionID uint) {

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			succeeded++
		}
	}

	results, err := json.Marshal(outcomes)
	if err != nil {
		results = []byte("[]")
	}
	triggerContext, err := json.Marshal(event)
	if err != nil {
		triggerContext = []byte("{}")
	}

	record := &database.WorkflowExecution{
		WorkflowID:      rule.Workflow.ID,
		GuildID:         event.GuildID,
		UserID:          event.UserID,
		ChannelID:       event.ChannelID,
		MessageID:       event.MessageID,
		TriggerContext:  string(triggerContext),
		Status:          status,
		DurationMs:      duration.Milliseconds(),
		ActionsExecuted: succeeded,
		ActionResults:   string(results),
		Error:           errText,
		ErrorActionID:   errActionID,
	}

	if err := el.store.InsertExecution(ctx, record); err != nil {
		logging.Error("Failed to persist execution log for workflow %d: %v", rule.Workflow.ID, err)
	}
}
