package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

var globalDB *Database

// Initialize opens the sqlite database and migrates the workflow schema.
func Initialize(path string) error {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := db.AutoMigrate(
		&Workflow{},
		&WorkflowCondition{},
		&WorkflowAction{},
		&WorkflowCooldown{},
		&WorkflowExecution{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	globalDB = &Database{db: db}
	return nil
}

// GetDB returns the global database instance.
func GetDB() *Database {
	return globalDB
}

// IsConnected checks if the database connection is alive.
func IsConnected() bool {
	if globalDB == nil {
		return false
	}
	sqlDB, err := globalDB.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

// Close closes the database connection.
func Close() error {
	if globalDB == nil {
		return nil
	}
	sqlDB, err := globalDB.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnabledWorkflows returns every enabled workflow, highest priority first.
func (d *Database) EnabledWorkflows(ctx context.Context) ([]Workflow, error) {
	var workflows []Workflow
	err := d.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority DESC").
		Find(&workflows).Error
	return workflows, err
}

// EnabledWorkflowsForGuild returns one guild's enabled workflows, highest
// priority first.
func (d *Database) EnabledWorkflowsForGuild(ctx context.Context, guildID string) ([]Workflow, error) {
	var workflows []Workflow
	err := d.db.WithContext(ctx).
		Where("guild_id = ? AND enabled = ?", guildID, true).
		Order("priority DESC").
		Find(&workflows).Error
	return workflows, err
}

// ConditionsFor returns a workflow's conditions in ascending sort order.
func (d *Database) ConditionsFor(ctx context.Context, workflowID uint) ([]WorkflowCondition, error) {
	var conditions []WorkflowCondition
	err := d.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("sort_order ASC").
		Find(&conditions).Error
	return conditions, err
}

// ActionsFor returns a workflow's actions in ascending sort order.
func (d *Database) ActionsFor(ctx context.Context, workflowID uint) ([]WorkflowAction, error) {
	var actions []WorkflowAction
	err := d.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("sort_order ASC").
		Find(&actions).Error
	return actions, err
}

// ActiveCooldown returns the expiry of a not-yet-expired cooldown for the
// given scope key, or nil when none exists.
func (d *Database) ActiveCooldown(ctx context.Context, workflowID uint, scope, targetID string, now time.Time) (*time.Time, error) {
	var cooldown WorkflowCooldown
	err := d.db.WithContext(ctx).
		Where("workflow_id = ? AND scope = ? AND target_id = ? AND expires_at > ?",
			workflowID, scope, targetID, now).
		Order("expires_at DESC").
		First(&cooldown).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cooldown.ExpiresAt, nil
}

// InsertCooldown records a new durable cooldown.
func (d *Database) InsertCooldown(ctx context.Context, cooldown *WorkflowCooldown) error {
	return d.db.WithContext(ctx).Create(cooldown).Error
}

// PurgeExpiredCooldowns deletes every cooldown row whose expiry has passed.
func (d *Database) PurgeExpiredCooldowns(ctx context.Context, now time.Time) error {
	return d.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&WorkflowCooldown{}).Error
}

// InsertExecution persists one firing's execution record.
func (d *Database) InsertExecution(ctx context.Context, execution *WorkflowExecution) error {
	return d.db.WithContext(ctx).Create(execution).Error
}

// MarkTriggered stamps last_triggered_at and bumps the execution counter.
func (d *Database) MarkTriggered(ctx context.Context, workflowID uint, at time.Time) error {
	return d.db.WithContext(ctx).
		Model(&Workflow{}).
		Where("id = ?", workflowID).
		Updates(map[string]interface{}{
			"last_triggered_at": at,
			"execution_count":   gorm.Expr("execution_count + 1"),
		}).Error
}
