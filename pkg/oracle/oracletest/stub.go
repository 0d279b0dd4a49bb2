// Package oracletest provides a scripted, deterministic oracle for tests.
package oracletest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/concierge/pkg/oracle"
)

// Call records one Evaluate invocation.
type Call struct {
	Condition string
	Utterance string
}

// Stub answers conditions from a script. Unknown conditions evaluate to false.
// It implements both oracle.ConditionOracle and oracle.Ranker.
type Stub struct {
	mu          sync.Mutex
	answers     map[string]bool
	byUtterance map[string]map[string]bool
	delays      map[string]time.Duration
	rankings    map[string]oracle.Ranking
	rankCalls   []oracle.RankRequest
	calls       []Call
}

// New creates an empty stub.
func New() *Stub {
	return &Stub{
		answers:     make(map[string]bool),
		byUtterance: make(map[string]map[string]bool),
		delays:      make(map[string]time.Duration),
		rankings:    make(map[string]oracle.Ranking),
	}
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Set answers condition with v for every utterance.
func (s *Stub) Set(condition string, v bool) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[norm(condition)] = v
	return s
}

// True is shorthand for Set(condition, true) over several conditions.
func (s *Stub) True(conditions ...string) *Stub {
	for _, c := range conditions {
		s.Set(c, true)
	}
	return s
}

// SetFor answers condition with v only when the utterance matches. It overrides Set.
func (s *Stub) SetFor(utterance, condition string, v bool) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := norm(utterance)
	if s.byUtterance[u] == nil {
		s.byUtterance[u] = make(map[string]bool)
	}
	s.byUtterance[u][norm(condition)] = v
	return s
}

// Delay makes the evaluation of condition wait d, ignoring context cancellation.
func (s *Stub) Delay(condition string, d time.Duration) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[norm(condition)] = d
	return s
}

// RankAs scripts the ranking returned for an utterance ("" matches any utterance).
func (s *Stub) RankAs(utterance string, r oracle.Ranking) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings[norm(utterance)] = r
	return s
}

// Evaluate implements oracle.ConditionOracle.
func (s *Stub) Evaluate(ctx context.Context, condition string, oc oracle.Context) (bool, error) {
	c, u := norm(condition), norm(oc.Utterance)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Condition: condition, Utterance: oc.Utterance})
	delay := s.delays[c]
	answer, ok := s.byUtterance[u][c]
	if !ok {
		answer = s.answers[c]
	}
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return answer, nil
}

// Rank implements oracle.Ranker. Without a script the ranking is unresolved.
func (s *Stub) Rank(ctx context.Context, req oracle.RankRequest) (oracle.Ranking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankCalls = append(s.rankCalls, req)
	if r, ok := s.rankings[norm(req.Context.Utterance)]; ok {
		return r, nil
	}
	if r, ok := s.rankings[""]; ok {
		return r, nil
	}
	return oracle.Ranking{}, nil
}

// Calls returns the recorded evaluations.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Evaluated reports whether condition was asked at least once.
func (s *Stub) Evaluated(condition string) bool {
	for _, c := range s.Calls() {
		if norm(c.Condition) == norm(condition) {
			return true
		}
	}
	return false
}

// RankRequests returns the recorded ranking requests.
func (s *Stub) RankRequests() []oracle.RankRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]oracle.RankRequest(nil), s.rankCalls...)
}
