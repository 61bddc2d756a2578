package colab

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/metrics"
)

// ErrStaleSuggestions is returned by a resolution pass that was overtaken by a
// newer one (typically for another billing client) before it finished.
var ErrStaleSuggestions = errors.New("suggestion pass superseded")

// Suggestions maps a module ID to the suggested user ID. A missing key means
// no suggestion.
type Suggestions map[int64]int64

func (s Suggestions) clone() Suggestions {
	out := make(Suggestions, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DefaultUser picks the user a freshly activated module is seeded with: the
// suggestion when it is eligible for the module, else the first eligible
// user, else nobody.
func DefaultUser(entry RosterEntry, suggestions Suggestions) (User, bool) {
	if suggested, ok := suggestions[entry.Module.ID]; ok {
		for _, u := range entry.Users {
			if u.ID == suggested {
				return u, true
			}
		}
	}
	if len(entry.Users) > 0 {
		return entry.Users[0], true
	}
	return User{}, false
}

// SuggestionResolver looks up historical collaborators for a billing client.
// Every Resolve call supersedes the previous ones; results of a superseded
// pass are dropped.
type SuggestionResolver struct {
	lookup  SuggestionLookup
	logger  *slog.Logger
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
	clientID   int64
	resolved   Suggestions
}

func NewSuggestionResolver(lookup SuggestionLookup, logger *slog.Logger, timeout time.Duration) *SuggestionResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestionResolver{
		lookup:   lookup,
		logger:   logger,
		timeout:  timeout,
		resolved: Suggestions{},
	}
}

type lookupResult struct {
	userID int64
	found  bool
}

// Resolve issues one lookup per module concurrently. A failing, timing out or
// empty lookup leaves its module without a suggestion and never fails the
// pass. The pass fails only when it was superseded or ctx was cancelled.
func (r *SuggestionResolver) Resolve(ctx context.Context, billingClientID int64, modules []Module) (Suggestions, error) {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	if r.clientID != billingClientID {
		r.clientID = billingClientID
		r.resolved = Suggestions{}
	}
	r.mu.Unlock()

	results := make([]lookupResult, len(modules))
	var wg sync.WaitGroup
	for i, m := range modules {
		wg.Add(1)
		go func(i int, m Module) {
			defer wg.Done()
			results[i] = r.lookupOne(ctx, m, billingClientID)
		}(i, m)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.Info("suggestion pass cancelled", "billing_client_id", billingClientID, "error", err)
		return nil, err
	}

	resolved := make(Suggestions, len(modules))
	for i, m := range modules {
		if results[i].found {
			resolved[m.ID] = results[i].userID
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation || r.clientID != billingClientID {
		r.logger.Info("discarding stale suggestion pass",
			"billing_client_id", billingClientID,
			"generation", gen,
			"current_generation", r.generation)
		return nil, ErrStaleSuggestions
	}
	r.resolved = resolved
	return resolved.clone(), nil
}

func (r *SuggestionResolver) lookupOne(ctx context.Context, m Module, billingClientID int64) lookupResult {
	lctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	userID, found, err := r.lookup.SuggestUser(lctx, m.ID, billingClientID)
	switch {
	case err != nil:
		metrics.SuggestionLookups.WithLabelValues("error").Inc()
		r.logger.Warn("suggestion lookup failed",
			"module_id", m.ID,
			"billing_client_id", billingClientID,
			"error", err)
		return lookupResult{}
	case !found || userID <= 0:
		metrics.SuggestionLookups.WithLabelValues("none").Inc()
		return lookupResult{}
	}
	metrics.SuggestionLookups.WithLabelValues("found").Inc()
	return lookupResult{userID: userID, found: true}
}

// Current returns the last completed resolution for the current client.
func (r *SuggestionResolver) Current() Suggestions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved.clone()
}

// Invalidate drops every resolved suggestion and supersedes in-flight passes.
func (r *SuggestionResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.clientID = 0
	r.resolved = Suggestions{}
}
