package colab

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type ServiceConfig struct {
	SuggestionTimeout time.Duration
	WriteTimeout      time.Duration
}

// Service prepares and submits collaborator edits for one dossier at a time.
type Service struct {
	profiles ProfileSource
	lookup   SuggestionLookup
	loader   SnapshotLoader
	executor *Executor
	config   ServiceConfig
	logger   *slog.Logger
}

func NewService(profiles ProfileSource, lookup SuggestionLookup, writer AssignmentWriter, loader SnapshotLoader, publisher EventPublisher, config ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []ExecutorOption{WithWriteTimeout(config.WriteTimeout)}
	if publisher != nil {
		opts = append(opts, WithPublisher(publisher))
	}
	return &Service{
		profiles: profiles,
		lookup:   lookup,
		loader:   loader,
		executor: NewExecutor(writer, loader, logger, opts...),
		config:   config,
		logger:   logger,
	}
}

// Session is the editing state of one dossier: the roster, the suggestions
// for its billing client, the persisted snapshot and the operator selection.
type Session struct {
	DossierID   int64
	Roster      *Roster
	Suggestions Suggestions
	Snapshot    *Snapshot
	Selector    *Selector

	resolver *SuggestionResolver
	logger   *slog.Logger
}

// Intent is one operator action on a module. A nil UserID on an activation
// keeps the current or default user.
type Intent struct {
	ModuleID int64
	UserID   *int64
	Active   bool
}

type ModuleDefault struct {
	Module          Module `json:"module"`
	Users           []User `json:"users"`
	SuggestedUserID *int64 `json:"suggested_user_id,omitempty"`
	DefaultUserID   *int64 `json:"default_user_id,omitempty"`
	SelectedUserID  *int64 `json:"selected_user_id,omitempty"`
	CurrentUserID   *int64 `json:"current_user_id,omitempty"`
}

// Prepare loads everything needed to edit the collaborators of a dossier.
// The selection starts from the active persisted assignments.
func (s *Service) Prepare(ctx context.Context, dossierID int64) (*Session, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("failed to list access profiles", "dossier_id", dossierID, "error", err)
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	snapshot, err := s.loader.LoadSnapshot(ctx, dossierID)
	if err != nil {
		s.logger.Error("failed to load dossier snapshot", "dossier_id", dossierID, "error", err)
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	roster := BuildRoster(profiles)
	resolver := NewSuggestionResolver(s.lookup, s.logger, s.config.SuggestionTimeout)
	suggestions, err := resolver.Resolve(ctx, snapshot.BillingClientID, roster.Modules())
	if err != nil {
		return nil, fmt.Errorf("resolve suggestions: %w", err)
	}

	selector := NewSelector(roster, suggestions)
	selector.Load(snapshot.Active())

	s.logger.Debug("colab session prepared",
		"dossier_id", dossierID,
		"modules", len(roster.Modules()),
		"suggestions", len(suggestions),
		"active", len(snapshot.Active()))

	return &Session{
		DossierID:   dossierID,
		Roster:      roster,
		Suggestions: suggestions,
		Snapshot:    snapshot,
		Selector:    selector,
		resolver:    resolver,
		logger:      s.logger,
	}, nil
}

// ChangeBillingClient recomputes suggestions for another billing client.
// Suggestions of the previous client are discarded before the lookups start.
// Modules already selected keep their user.
func (ss *Session) ChangeBillingClient(ctx context.Context, billingClientID int64) error {
	ss.resolver.Invalidate()
	ss.Suggestions = Suggestions{}
	ss.Selector.UseSuggestions(ss.Suggestions)
	suggestions, err := ss.resolver.Resolve(ctx, billingClientID, ss.Roster.Modules())
	if err != nil {
		return err
	}
	ss.Suggestions = suggestions
	ss.Selector.UseSuggestions(suggestions)
	return nil
}

// ApplyIntents replays operator actions on the selection in order. A user
// outside the module's roster is accepted and only logged.
func (ss *Session) ApplyIntents(intents []Intent) error {
	for _, in := range intents {
		if !in.Active {
			ss.Selector.Deactivate(in.ModuleID)
			continue
		}
		ss.Selector.Activate(in.ModuleID)
		if in.UserID == nil {
			continue
		}
		if err := ss.Selector.Reassign(in.ModuleID, *in.UserID); err != nil {
			return fmt.Errorf("module %d: %w", in.ModuleID, err)
		}
		if !ss.Roster.IsEligible(in.ModuleID, *in.UserID) && ss.logger != nil {
			ss.logger.Warn("assigned a user outside the module roster",
				"dossier_id", ss.DossierID,
				"module_id", in.ModuleID,
				"user_id", *in.UserID)
		}
	}
	return nil
}

// Plan diffs the selection against the active snapshot.
func (ss *Session) Plan() []Op {
	return Reconcile(ss.Selector.Snapshot(), ss.Snapshot.Active())
}

// Defaults describes every roster module for rendering: eligible users, the
// suggestion, the seeded default and the current and selected users.
func (ss *Session) Defaults() []ModuleDefault {
	current := make(map[int64]int64)
	for _, a := range ss.Snapshot.Active() {
		current[a.ModuleID] = a.UserID
	}
	selected := make(map[int64]int64)
	for _, a := range ss.Selector.Snapshot() {
		selected[a.ModuleID] = a.UserID
	}

	entries := ss.Roster.Entries()
	out := make([]ModuleDefault, 0, len(entries))
	for _, e := range entries {
		d := ModuleDefault{Module: e.Module, Users: e.Users}
		if id, ok := ss.Suggestions[e.Module.ID]; ok {
			d.SuggestedUserID = int64Ptr(id)
		}
		if u, ok := DefaultUser(e, ss.Suggestions); ok {
			d.DefaultUserID = int64Ptr(u.ID)
		}
		if id, ok := selected[e.Module.ID]; ok {
			d.SelectedUserID = int64Ptr(id)
		}
		if id, ok := current[e.Module.ID]; ok {
			d.CurrentUserID = int64Ptr(id)
		}
		out = append(out, d)
	}
	return out
}

// Submit executes the session plan. The session snapshot is always replaced
// by the reloaded one; the selection is reset to it only when the batch
// succeeded, so a retry after a failure only re-issues what is still missing.
func (s *Service) Submit(ctx context.Context, ss *Session) (*BatchResult, error) {
	ops := ss.Plan()
	result, err := s.executor.Apply(ctx, ss.DossierID, ops)
	if result != nil && result.Snapshot != nil {
		ss.Snapshot = result.Snapshot
		if err == nil {
			ss.Selector.Load(result.Snapshot.Active())
		}
	}
	return result, err
}

func int64Ptr(v int64) *int64 {
	return &v
}
