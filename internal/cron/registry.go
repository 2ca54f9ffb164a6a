package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Report carries per-item counts from one job run, keyed by action
// ("removed", "kept", ...). A job returns what it counted even when it fails.
type Report map[string]int

// Add increments the count for action.
func (r Report) Add(action string, n int) {
	if r == nil || n == 0 {
		return
	}
	r[action] += n
}

// Actions returns the recorded actions in a stable order.
func (r Report) Actions() []string {
	actions := make([]string, 0, len(r))
	for action := range r {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Job is a maintenance task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) (Report, error)
}

// Registry holds the jobs of one worker, unique by name.
type Registry struct {
	jobs  []Job
	index map[string]Job
}

// NewRegistry builds a registry from jobs. Nil jobs are skipped.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{index: map[string]Job{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds job. Blank and duplicate names are rejected.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name required")
	}
	if r.index == nil {
		r.index = map[string]Job{}
	}
	if _, exists := r.index[name]; exists {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.index[name] = job
	r.jobs = append(r.jobs, job)
	return nil
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.index[strings.TrimSpace(name)]
	return job, ok
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
