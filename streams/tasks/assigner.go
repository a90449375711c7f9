package tasks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ersushantsood/storm/streams/topology"
)

// TaskID identifies one running instance of a component.
type TaskID int

// Assignment maps every task of a running topology to the component it executes.
type Assignment map[TaskID]topology.ComponentID

// Clone returns a copy that shares nothing with a.
func (a Assignment) Clone() Assignment {
	cp := make(Assignment, len(a))
	for task, component := range a {
		cp[task] = component
	}

	return cp
}

// Tasks returns every task id in ascending order.
func (a Assignment) Tasks() []TaskID {
	tasks := make([]TaskID, 0, len(a))
	for task := range a {
		tasks = append(tasks, task)
	}
	sortTasks(tasks)

	return tasks
}

// ComponentTasks inverts the assignment, each task list is in ascending order.
func (a Assignment) ComponentTasks() map[topology.ComponentID][]TaskID {
	inverted := map[topology.ComponentID][]TaskID{}
	for task, component := range a {
		inverted[component] = append(inverted[component], task)
	}

	for _, tasks := range inverted {
		sortTasks(tasks)
	}

	return inverted
}

func (a Assignment) String() string {
	var prnt strings.Builder
	for _, task := range a.Tasks() {
		prnt.WriteString(fmt.Sprintf("Task %d - Component %d \n", task, a[task]))
	}

	return prnt.String()
}

func sortTasks(tasks []TaskID) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i] < tasks[j]
	})
}

// Assigner allocates task ids to the components of a topology.
type Assigner struct {
	// FirstTaskID is the id given to the first task (default 1).
	FirstTaskID TaskID
}

// Generate creates ParallelismHint tasks (at least one) for every component.
// Components are visited in ascending id order and task ids are contiguous, so
// the same topology always yields the same assignment.
//
//	components: 1(x2) 2(x3)
//	tasks:      1 2 | 3 4 5
func (a *Assigner) Generate(tp *topology.Topology) Assignment {
	next := a.FirstTaskID
	if next == 0 {
		next = 1
	}

	assignment := Assignment{}
	for _, id := range tp.ComponentIDs() {
		c, _ := tp.Component(id)
		parallelism := c.Common().ParallelismHint
		if parallelism < 1 {
			parallelism = 1
		}

		for i := 0; i < parallelism; i++ {
			assignment[next] = id
			next++
		}
	}

	return assignment
}
