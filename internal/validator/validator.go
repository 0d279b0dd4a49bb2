// Package validator checks journey graphs before they are used by a session.
package validator

import (
	"errors"
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
)

// Validate checks that every transition links states of the journey and that every
// non-End state has a path to the End state or to a tool state. All problems are
// reported together as *domain.ConfigurationError values.
func Validate(j *domain.Journey) error {
	var errs []error

	if _, ok := j.State(j.Initial); !ok {
		errs = append(errs, domain.NewConfigError(domain.ConfigUndefinedState, j.Title, "initial state %d does not exist", j.Initial))
	}
	if end, ok := j.State(j.End); !ok || end.Kind != domain.StateEnd {
		errs = append(errs, domain.NewConfigError(domain.ConfigUndefinedState, j.Title, "end state %d does not exist", j.End))
	}
	for i, s := range j.States {
		if s.ID != domain.StateID(i) {
			errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, j.Title, "state at index %d has id %d", i, s.ID))
		}
	}
	for _, t := range j.Transitions {
		if _, ok := j.State(t.Source); !ok {
			errs = append(errs, domain.NewConfigError(domain.ConfigUndefinedState, j.Title, "transition from undefined state %d", t.Source))
		}
		if _, ok := j.State(t.Target); !ok {
			errs = append(errs, domain.NewConfigError(domain.ConfigUndefinedState, j.Title, "transition to undefined state %d", t.Target))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	live := Live(j)
	for _, s := range j.States {
		if s.Kind == domain.StateEnd || live[s.ID] {
			continue
		}
		errs = append(errs, domain.NewConfigError(domain.ConfigDeadEnd, j.Title, "state %q has no path to END or to a tool call", s.Label()))
	}
	return errors.Join(errs...)
}

// Live returns the states that are an End or tool state, or that reach one.
// It walks the graph backwards from those states.
func Live(j *domain.Journey) map[domain.StateID]bool {
	incoming := make(map[domain.StateID][]domain.StateID)
	for _, t := range j.Transitions {
		incoming[t.Target] = append(incoming[t.Target], t.Source)
	}

	live := make(map[domain.StateID]bool)
	var queue []domain.StateID
	for _, s := range j.States {
		if s.Kind == domain.StateEnd || s.Kind == domain.StateTool {
			live[s.ID] = true
			queue = append(queue, s.ID)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, src := range incoming[current] {
			if !live[src] {
				live[src] = true
				queue = append(queue, src)
			}
		}
	}
	return live
}

// Unreachable returns the states that cannot be reached from the initial state.
// They are not an error, but usually point to a forgotten transition.
func Unreachable(j *domain.Journey) []domain.StateID {
	visited := make(map[domain.StateID]bool)
	queue := []domain.StateID{j.Initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, t := range j.Outgoing(current) {
			if !visited[t.Target] {
				queue = append(queue, t.Target)
			}
		}
	}

	var out []domain.StateID
	for _, s := range j.States {
		if !visited[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}

// Describe formats the result of Unreachable for humans.
func Describe(j *domain.Journey, ids []domain.StateID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s, _ := j.State(id)
		out = append(out, fmt.Sprintf("%s: state %d (%s) is unreachable", j.Title, id, s.Label()))
	}
	return out
}
