package service

import (
	"context"
	"sync"
	"time"

	"github.com/telewarm/warmup-engine-go/internal/messaging"
	"github.com/telewarm/warmup-engine-go/internal/model"
	"github.com/telewarm/warmup-engine-go/internal/planner"
)

// Hand-rolled mocks shared by the service tests. Function fields override
// behavior per test; unset fields fall back to benign defaults.

type mockAccountRepo struct {
	mu sync.Mutex

	accounts   map[string]*model.Account
	candidates []model.Account
	findErr    error
	listErr    error

	firstWarmups map[string]time.Time
	lastWarmups  map[string]time.Time
	stages       map[string]int

	frozenSet  []string
	deletedSet []string
	bannedSet  []string
	helperSet  []string

	frozenApplied  bool
	deletedApplied bool
	bannedApplied  bool
	helperApplied  bool

	frozenErr  error
	deletedErr error
	bannedErr  error
	helperErr  error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		accounts:     make(map[string]*model.Account),
		firstWarmups: make(map[string]time.Time),
		lastWarmups:  make(map[string]time.Time),
		stages:       make(map[string]int),
	}
}

func (m *mockAccountRepo) FindBySessionID(_ context.Context, sessionID string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.accounts[sessionID], nil
}

func (m *mockAccountRepo) FindAll(_ context.Context, limit, offset int) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAccountRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts), nil
}

func (m *mockAccountRepo) Create(_ context.Context, params model.CreateAccountParams) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delay := params.StartDelayUntil
	account := &model.Account{
		ID:                    int64(len(m.accounts) + 1),
		SessionID:             params.SessionID,
		WarmupStage:           1,
		IsActive:              true,
		MinDailyActivity:      params.MinDailyActivity,
		MaxDailyActivity:      params.MaxDailyActivity,
		WarmupStartDelayUntil: &delay,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}
	m.accounts[params.SessionID] = account
	return account, nil
}

func (m *mockAccountRepo) Update(_ context.Context, sessionID string, params model.UpdateAccountParams) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[sessionID]
	if !ok {
		return nil, nil
	}
	if params.IsActive != nil {
		account.IsActive = *params.IsActive
	}
	if params.LLMGenerationDisabled != nil {
		account.LLMGenerationDisabled = *params.LLMGenerationDisabled
	}
	if params.MinDailyActivity != nil {
		account.MinDailyActivity = *params.MinDailyActivity
	}
	if params.MaxDailyActivity != nil {
		account.MaxDailyActivity = *params.MaxDailyActivity
	}
	return account, nil
}

func (m *mockAccountRepo) ListWarmupCandidates(_ context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.candidates, nil
}

func (m *mockAccountRepo) SetFirstWarmup(_ context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, set := m.firstWarmups[sessionID]; !set {
		m.firstWarmups[sessionID] = at
	}
	return nil
}

func (m *mockAccountRepo) SetLastWarmup(_ context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWarmups[sessionID] = at
	return nil
}

func (m *mockAccountRepo) SetStage(_ context.Context, sessionID string, stage int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stage > m.stages[sessionID] {
		m.stages[sessionID] = stage
	}
	return nil
}

func (m *mockAccountRepo) ReplaceFrozenSet(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozenErr != nil {
		return m.frozenErr
	}
	m.frozenSet = ids
	m.frozenApplied = true
	return nil
}

func (m *mockAccountRepo) ReplaceDeletedSet(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deletedErr != nil {
		return m.deletedErr
	}
	m.deletedSet = ids
	m.deletedApplied = true
	return nil
}

func (m *mockAccountRepo) ApplyPermanentBans(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bannedErr != nil {
		return m.bannedErr
	}
	m.bannedSet = ids
	m.bannedApplied = true
	return nil
}

func (m *mockAccountRepo) ReplaceHelperSet(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.helperErr != nil {
		return m.helperErr
	}
	m.helperSet = ids
	m.helperApplied = true
	return nil
}

type mockSessionRepo struct {
	mu        sync.Mutex
	created   []model.CreateWarmupSessionParams
	finalized []model.FinalizeWarmupSessionParams
	createErr error
}

func (m *mockSessionRepo) Create(_ context.Context, params model.CreateWarmupSessionParams) (*model.WarmupSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, params)
	return &model.WarmupSession{
		ID:        params.ID,
		SessionID: params.SessionID,
		Stage:     params.Stage,
		Status:    model.WarmupStatusInProgress,
		Plan:      params.Plan,
		StartedAt: time.Now(),
	}, nil
}

func (m *mockSessionRepo) Finalize(_ context.Context, params model.FinalizeWarmupSessionParams) (*model.WarmupSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalized = append(m.finalized, params)
	now := time.Now()
	return &model.WarmupSession{
		ID:             params.ID,
		Status:         params.Status,
		CompletedCount: params.CompletedCount,
		FailedCount:    params.FailedCount,
		FinishedAt:     &now,
	}, nil
}

func (m *mockSessionRepo) FindByID(_ context.Context, id string) (*model.WarmupSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) FindBySessionID(_ context.Context, sessionID string, limit, offset int) ([]model.WarmupSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) CountInFlight(_ context.Context, sessionID string) (int, error) {
	return 0, nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	records []model.ActionHistoryEntry
	deleted int64
}

func (m *mockHistoryRepo) Record(_ context.Context, sessionID string, actionType model.ActionType, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, model.ActionHistoryEntry{
		SessionID:  sessionID,
		ActionType: actionType,
		Detail:     detail,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (m *mockHistoryRepo) FindBySessionID(_ context.Context, sessionID string, limit, offset int) ([]model.ActionHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}

func (m *mockHistoryRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted, nil
}

func (m *mockHistoryRepo) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type mockSyncStateRepo struct {
	mu       sync.Mutex
	state    *model.SyncState
	getErr   error
	advanced []time.Time
}

func (m *mockSyncStateRepo) Get(_ context.Context) (*model.SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.state, nil
}

func (m *mockSyncStateRepo) Advance(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advanced = append(m.advanced, at)
	return nil
}

type mockRegistry struct {
	frozen     []string
	deleted    []string
	banned     []string
	helpers    []string
	frozenErr  error
	deletedErr error
	bannedErr  error
	helperErr  error
}

func (m *mockRegistry) FrozenSessions(_ context.Context) ([]string, error) {
	return m.frozen, m.frozenErr
}

func (m *mockRegistry) DeletedSessions(_ context.Context) ([]string, error) {
	return m.deleted, m.deletedErr
}

func (m *mockRegistry) PermanentlyBannedSessions(_ context.Context) ([]string, error) {
	return m.banned, m.bannedErr
}

func (m *mockRegistry) HelperSessions(_ context.Context) ([]string, error) {
	return m.helpers, m.helperErr
}

type mockPlanner struct {
	plan []model.Action
	err  error
	last planner.PlanRequest
}

func (m *mockPlanner) GeneratePlan(_ context.Context, req planner.PlanRequest) ([]model.Action, error) {
	m.last = req
	return m.plan, m.err
}

// mockBackend fails any call whose target is listed in failTargets and
// records every call it receives.
type mockBackend struct {
	mu          sync.Mutex
	calls       []string
	failTargets map[string]error
}

func newMockBackend() *mockBackend {
	return &mockBackend{failTargets: make(map[string]error)}
}

func (m *mockBackend) record(call, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.failTargets[target]
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockBackend) JoinChannel(_ context.Context, sessionID, channel string) error {
	return m.record("join:"+channel, channel)
}

func (m *mockBackend) SendMessage(_ context.Context, sessionID, peer, text string) error {
	return m.record("message:"+peer, peer)
}

func (m *mockBackend) SendReaction(_ context.Context, sessionID, channel string) error {
	return m.record("react:"+channel, channel)
}

func (m *mockBackend) Dialogs(_ context.Context, sessionID string) ([]messaging.Dialog, error) {
	m.record("dialogs", "")
	return nil, nil
}

func (m *mockBackend) History(_ context.Context, sessionID, peer string, limit int) ([]messaging.Message, error) {
	return nil, m.record("history:"+peer, peer)
}

func (m *mockBackend) ResolvePeer(_ context.Context, sessionID, username string) (*messaging.Peer, error) {
	if err := m.record("resolve:"+username, username); err != nil {
		return nil, err
	}
	return &messaging.Peer{ID: "1", Username: username}, nil
}

func (m *mockBackend) UpdateProfile(_ context.Context, sessionID, bio string) error {
	return m.record("profile", "profile")
}

func (m *mockBackend) SyncContacts(_ context.Context, sessionID string) error {
	return m.record("contacts", "contacts")
}

func (m *mockBackend) UpdatePrivacy(_ context.Context, sessionID string) error {
	return m.record("privacy", "privacy")
}

func (m *mockBackend) CreateGroup(_ context.Context, sessionID, name string) error {
	return m.record("group:"+name, name)
}

func (m *mockBackend) ForwardMessage(_ context.Context, sessionID, fromChat, toChat string) error {
	return m.record("forward:"+fromChat, fromChat)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *mockPublisher) Publish(_ context.Context, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}
