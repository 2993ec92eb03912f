package database

import "time"

// Workflow is one automation rule: a trigger, a set of conditions, an
// ordered list of actions and an optional cooldown. The engine only ever
// writes LastTriggeredAt and ExecutionCount; everything else belongs to the
// authoring surface.
type Workflow struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	GuildID         string     `gorm:"size:32;not null;index" json:"guild_id"`
	Name            string     `gorm:"size:255" json:"name"`
	Enabled         bool       `gorm:"default:true;index" json:"enabled"`
	Priority        int        `gorm:"default:0" json:"priority"`
	TriggerType     string     `gorm:"size:50;not null" json:"trigger_type"`
	TriggerConfig   string     `gorm:"type:text" json:"trigger_config"`
	CooldownEnabled bool       `gorm:"default:false" json:"cooldown_enabled"`
	CooldownScope   string     `gorm:"size:10" json:"cooldown_scope"`
	CooldownSeconds int        `gorm:"default:0" json:"cooldown_seconds"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
	ExecutionCount  int64      `gorm:"default:0" json:"execution_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Workflow) TableName() string {
	return "workflows"
}

// WorkflowCondition rows sharing a GroupIndex are AND-ed; distinct groups
// are OR-ed against each other.
type WorkflowCondition struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WorkflowID uint      `gorm:"not null;index" json:"workflow_id"`
	Type       string    `gorm:"size:50;not null" json:"type"`
	Config     string    `gorm:"type:text" json:"config"`
	GroupIndex int       `gorm:"default:0" json:"group_index"`
	Negate     bool      `gorm:"default:false" json:"negate"`
	SortOrder  int       `gorm:"default:0" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

func (WorkflowCondition) TableName() string {
	return "workflow_conditions"
}

// WorkflowAction rows execute in ascending SortOrder. ParentID is reserved
// for branching; rows with a parent are not part of the flat sequence.
type WorkflowAction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	WorkflowID      uint      `gorm:"not null;index" json:"workflow_id"`
	Type            string    `gorm:"size:50;not null" json:"type"`
	Config          string    `gorm:"type:text" json:"config"`
	SortOrder       int       `gorm:"default:0" json:"sort_order"`
	ParentID        *uint     `json:"parent_id"`
	ContinueOnError bool      `gorm:"default:false" json:"continue_on_error"`
	CreatedAt       time.Time `json:"created_at"`
}

func (WorkflowAction) TableName() string {
	return "workflow_actions"
}

// WorkflowCooldown is one durable rate-limit record. TargetID is empty for
// server scope.
type WorkflowCooldown struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WorkflowID uint      `gorm:"not null;index" json:"workflow_id"`
	GuildID    string    `gorm:"size:32;not null" json:"guild_id"`
	Scope      string    `gorm:"size:10;not null" json:"scope"`
	TargetID   string    `gorm:"size:32" json:"target_id"`
	ExpiresAt  time.Time `gorm:"index" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (WorkflowCooldown) TableName() string {
	return "workflow_cooldowns"
}

// WorkflowExecution is the write-once record of one firing.
type WorkflowExecution struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	WorkflowID      uint      `gorm:"not null;index" json:"workflow_id"`
	GuildID         string    `gorm:"size:32;not null;index" json:"guild_id"`
	UserID          string    `gorm:"size:32" json:"user_id"`
	ChannelID       string    `gorm:"size:32" json:"channel_id"`
	MessageID       string    `gorm:"size:32" json:"message_id"`
	TriggerContext  string    `gorm:"type:text" json:"trigger_context"`
	Status          string    `gorm:"size:20;not null" json:"status"`
	DurationMs      int64     `json:"duration_ms"`
	ActionsExecuted int       `json:"actions_executed"`
	ActionResults   string    `gorm:"type:text" json:"action_results"`
	Error           string    `gorm:"type:text" json:"error"`
	ErrorActionID   uint      `json:"error_action_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func (WorkflowExecution) TableName() string {
	return "workflow_executions"
}

// Execution statuses.
const (
	ExecutionStarted = "started"
	ExecutionSuccess = "success"
	ExecutionFailed  = "failed"
)
