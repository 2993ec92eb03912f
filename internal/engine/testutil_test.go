package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-workflow-engine/internal/database"
	"go-workflow-engine/internal/models"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu         sync.Mutex
	workflows  []database.Workflow
	conditions map[uint][]database.WorkflowCondition
	actions    map[uint][]database.WorkflowAction
	cooldowns  []database.WorkflowCooldown
	executions []*database.WorkflowExecution
	triggered  map[uint]int

	cooldownErr error
	loadErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conditions: make(map[uint][]database.WorkflowCondition),
		actions:    make(map[uint][]database.WorkflowAction),
		triggered:  make(map[uint]int),
	}
}

func (s *fakeStore) EnabledWorkflows(ctx context.Context) ([]database.Workflow, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.workflows, nil
}

func (s *fakeStore) EnabledWorkflowsForGuild(ctx context.Context, guildID string) ([]database.Workflow, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	var out []database.Workflow
	for _, w := range s.workflows {
		if w.GuildID == guildID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *fakeStore) ConditionsFor(ctx context.Context, workflowID uint) ([]database.WorkflowCondition, error) {
	return s.conditions[workflowID], nil
}

func (s *fakeStore) ActionsFor(ctx context.Context, workflowID uint) ([]database.WorkflowAction, error) {
	return s.actions[workflowID], nil
}

func (s *fakeStore) ActiveCooldown(ctx context.Context, workflowID uint, scope, targetID string, now time.Time) (*time.Time, error) {
	if s.cooldownErr != nil {
		return nil, s.cooldownErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.cooldowns) - 1; i >= 0; i-- {
		c := s.cooldowns[i]
		if c.WorkflowID == workflowID && c.Scope == scope && c.TargetID == targetID && c.ExpiresAt.After(now) {
			expiry := c.ExpiresAt
			return &expiry, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertCooldown(ctx context.Context, cooldown *database.WorkflowCooldown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns = append(s.cooldowns, *cooldown)
	return nil
}

func (s *fakeStore) PurgeExpiredCooldowns(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []database.WorkflowCooldown
	for _, c := range s.cooldowns {
		if c.ExpiresAt.After(now) {
			kept = append(kept, c)
		}
	}
	s.cooldowns = kept
	return nil
}

func (s *fakeStore) InsertExecution(ctx context.Context, execution *database.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions = append(s.executions, execution)
	return nil
}

func (s *fakeStore) MarkTriggered(ctx context.Context, workflowID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggered[workflowID]++
	return nil
}

// fakeDiscord records calls and can be told to fail specific methods.
type fakeDiscord struct {
	mu    sync.Mutex
	calls []discordCall
	fail  func(method string) error
}

type discordCall struct {
	method  string
	target  string
	payload string
}

func (d *fakeDiscord) record(method, target, payload string) error {
	d.mu.Lock()
	d.calls = append(d.calls, discordCall{method: method, target: target, payload: payload})
	d.mu.Unlock()
	if d.fail != nil {
		return d.fail(method)
	}
	return nil
}

func (d *fakeDiscord) SendMessage(ctx context.Context, channelID, content string) error {
	return d.record("SendMessage", channelID, content)
}

func (d *fakeDiscord) SendEmbed(ctx context.Context, channelID, title, description, footer string, color int) error {
	return d.record("SendEmbed", channelID, title)
}

func (d *fakeDiscord) SendDirectMessage(ctx context.Context, userID, content string) error {
	return d.record("SendDirectMessage", userID, content)
}

func (d *fakeDiscord) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.record("AddRole", userID, roleID)
}

func (d *fakeDiscord) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.record("RemoveRole", userID, roleID)
}

func (d *fakeDiscord) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return d.record("AddReaction", messageID, emoji)
}

func (d *fakeDiscord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return d.record("DeleteMessage", channelID, messageID)
}

func (d *fakeDiscord) CreateThread(ctx context.Context, channelID, messageID, name string, autoArchiveMinutes int) error {
	return d.record("CreateThread", messageID, name)
}

func (d *fakeDiscord) TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	return d.record("TimeoutUser", userID, reason)
}

type fakeWebhook struct {
	mu    sync.Mutex
	posts []string
	err   error
}

func (w *fakeWebhook) Post(ctx context.Context, url string, body []byte) error {
	w.mu.Lock()
	w.posts = append(w.posts, string(body))
	w.mu.Unlock()
	return w.err
}

var errExternal = errors.New("external call failed")

// messageEvent builds a typical message_received event.
func messageEvent(text string) *models.Event {
	return &models.Event{
		Type:        models.EventMessageReceived,
		GuildID:     "guild-1",
		GuildName:   "Test Guild",
		MemberCount: 42,
		UserID:      "user-1",
		Username:    "alex",
		DisplayName: "Alex",
		ChannelID:   "chan-1",
		MessageID:   "msg-1",
		MessageText: text,
		Timestamp:   time.Now(),
	}
}

// makeRule assembles a CachedRule directly, bypassing the store.
func makeRule(workflow database.Workflow, triggerConfig interface{}, conditions []CachedCondition, actions []CachedAction) *CachedRule {
	return &CachedRule{
		Workflow:      workflow,
		TriggerConfig: triggerConfig,
		Conditions:    conditions,
		Actions:       actions,
	}
}
