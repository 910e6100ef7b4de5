package model

import (
	"fmt"
	"strings"
)

// Task selects one linking pass of a run
type Task string

const (
	TaskCamps           Task = "camps"
	TaskOccupations     Task = "occupations"
	TaskMunicipalities  Task = "municipalities"
	TaskPersons         Task = "persons"
	TaskRanks           Task = "ranks"
	TaskMediaMagazine   Task = "media-magazine"
	TaskPersonDocuments Task = "person-documents"
)

// Tasks lists every task in command line order
var Tasks = []Task{
	TaskCamps,
	TaskOccupations,
	TaskMunicipalities,
	TaskPersons,
	TaskRanks,
	TaskMediaMagazine,
	TaskPersonDocuments,
}

// ParseTask resolves a task name
func ParseTask(s string) (Task, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Tasks {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task %q (want one of %s)", s, TaskNames())
}

// TaskNames returns the task names joined for help text
func TaskNames() string {
	names := make([]string, len(Tasks))
	for i, t := range Tasks {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// References reports whether the task links document references rather
// than literal values
func (t Task) References() bool {
	return t == TaskMediaMagazine || t == TaskPersonDocuments
}
