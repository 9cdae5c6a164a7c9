package task

import (
	"context"
	"slices"
	"strings"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/pkg/log"
)

const (
	generateAll       = "all"
	generatePrefixAll = "all_"
	generatePrefixNo  = "no_"
)

// Registry holds the declared tasks in declaration order.
type Registry struct {
	byName map[string]Task
	tasks  []Task
}

// NewRegistry returns a registry of the given tasks. Task names must be unique.
func NewRegistry(tasks ...Task) (*Registry, error) {
	registry := &Registry{
		byName: make(map[string]Task, len(tasks)),
		tasks:  make([]Task, 0, len(tasks)),
	}

	for _, task := range tasks {
		if _, ok := registry.byName[task.Name()]; ok {
			return nil, errors.New(DuplicateTaskError(task.Name()))
		}

		registry.byName[task.Name()] = task
		registry.tasks = append(registry.tasks, task)
	}

	return registry, nil
}

// NewRegistryFromConfig builds a CommandTask for every `[task.<name>]` section.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	taskConfigs, err := cfg.Tasks()
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(taskConfigs))

	for _, taskConfig := range taskConfigs {
		task, err := NewCommandTask(taskConfig)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return NewRegistry(tasks...)
}

// Tasks returns every task in declaration order.
func (registry *Registry) Tasks() []Task {
	return slices.Clone(registry.tasks)
}

// Get returns the task with the given name.
func (registry *Registry) Get(name string) (Task, error) {
	task, ok := registry.byName[name]
	if !ok {
		return nil, errors.New(UnknownTaskError(name))
	}

	return task, nil
}

// Select returns the tasks the generate list asks for, in declaration order.
func (registry *Registry) Select(generate []string) ([]Task, error) {
	var selected []Task

	for _, task := range registry.tasks {
		if ShouldGenerate(task, generate) {
			selected = append(selected, task)
		}
	}

	if len(selected) == 0 {
		return nil, errors.New(NoTasksSelectedError{Generate: generate})
	}

	return selected, nil
}

// ShouldGenerate evaluates the generate list for a single task. Elements are applied left to right:
// `all` and `all_<tag>` select, `no_<tag>` and `no_<name>` deselect, and a bare task name selects.
func ShouldGenerate(task Task, generate []string) bool {
	var shouldGenerate bool

	for _, element := range generate {
		switch {
		case element == generateAll:
			shouldGenerate = true
		case strings.HasPrefix(element, generatePrefixAll):
			if slices.Contains(task.Tags(), strings.TrimPrefix(element, generatePrefixAll)) {
				shouldGenerate = true
			}
		case strings.HasPrefix(element, generatePrefixNo):
			suffix := strings.TrimPrefix(element, generatePrefixNo)
			if suffix == task.Name() || slices.Contains(task.Tags(), suffix) {
				shouldGenerate = false
			}
		case element == task.Name():
			shouldGenerate = true
		}
	}

	return shouldGenerate
}

// Exclusion is a task that failed its check.
type Exclusion struct {
	Err  error
	Task Task
}

// CheckAll runs the check of every task and splits them into runnable tasks and exclusions.
func CheckAll(ctx context.Context, l log.Logger, tasks []Task) ([]Task, []Exclusion) {
	var (
		ready    = make([]Task, 0, len(tasks))
		excluded []Exclusion
	)

	for _, task := range tasks {
		if err := task.Check(ctx); err != nil {
			l.Errorf("ERROR: task %s failed during check and will not be run", task.Name())
			l.Debugf("Check of task %s failed: %v", task.Name(), err)

			excluded = append(excluded, Exclusion{Task: task, Err: err})

			continue
		}

		ready = append(ready, task)
	}

	return ready, excluded
}
