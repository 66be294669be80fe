package pwprobe

import (
	"io"
	"time"
)

// Report of a probe run, attempts are kept in the order passwords were given
type Report struct {
	ID         string
	Target     string
	Username   string
	StartedAt  time.Time
	FinishedAt time.Time
	Attempts   []*Attempt

	index map[string]int
}

// NewReport for a run against target
func NewReport(id, target, username string) *Report {
	return &Report{
		ID:       id,
		Target:   target,
		Username: username,
		Attempts: make([]*Attempt, 0),
		index:    make(map[string]int),
	}
}

// Add an attempt, an attempt for a password already in the report replaces it in place
func (r *Report) Add(attempt *Attempt) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, exist := r.index[attempt.Password]; exist {
		r.Attempts[i] = attempt
		return
	}
	r.index[attempt.Password] = len(r.Attempts)
	r.Attempts = append(r.Attempts, attempt)
}

// Get the attempt for password
func (r *Report) Get(password string) (*Attempt, bool) {
	i, exist := r.index[password]
	if !exist {
		return nil, false
	}
	return r.Attempts[i], true
}

// Len of attempts
func (r *Report) Len() int {
	return len(r.Attempts)
}

// Count attempts with the outcome
func (r *Report) Count(outcome Outcome) int {
	count := 0
	for _, a := range r.Attempts {
		if a.Outcome == outcome {
			count++
		}
	}
	return count
}

// Reporter renders a finished report
type Reporter interface {
	Print(writer io.Writer, report *Report) error
}
