// Package inmemdb keeps repositories in process memory. Used in tests and local development.
package inmemdb

import (
	"strings"
	"sync"
	"time"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
)

type (
	DB struct {
		candidate *candidateTable
		student   *studentTable
	}

	candidateTable struct {
		mutex sync.RWMutex
		table map[string]*candidate.Candidate
	}

	// studentTable also holds the payments: they are deleted with their student.
	studentTable struct {
		mutex    sync.RWMutex
		table    map[string]*student.Student
		payments map[string]*student.Payment
	}
)

func Open() *DB {
	return &DB{
		candidate: &candidateTable{table: make(map[string]*candidate.Candidate)},
		student: &studentTable{
			table:    make(map[string]*student.Student),
			payments: make(map[string]*student.Payment),
		},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.candidate.mutex.Lock()
	db.candidate.table = make(map[string]*candidate.Candidate)
	db.candidate.mutex.Unlock()

	db.student.mutex.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.payments = make(map[string]*student.Payment)
	db.student.mutex.Unlock()
}

// comparator returns <0, 0 or >0 like strings.Compare.
type comparator func(i, j int) int

// lessFunc orders by the given orderings, then by fallback.
func lessFunc(orderings []core.DBOrdering, fields map[string]comparator, fallback comparator) func(i, j int) bool {
	return func(i, j int) bool {
		for _, ord := range orderings {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(i, j); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return fallback(i, j) < 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func inTimeRange(t, from, to time.Time) bool {
	return (from.IsZero() || !t.Before(from)) && (to.IsZero() || !t.After(to))
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
