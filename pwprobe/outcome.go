package pwprobe

import (
	"time"
)

// Outcome of a single login attempt
type Outcome int8

const (
	// Accepted the weak candidate logged in
	Accepted Outcome = iota + 1
	// Rejected the candidate failed to log in
	Rejected
	// Inconclusive neither pattern matched
	Inconclusive
	// Errored the candidate could not be tested
	Errored
)

// OutcomeMap for printing
var OutcomeMap = map[Outcome]string{
	Accepted:     "accepted",
	Rejected:     "rejected",
	Inconclusive: "inconclusive",
	Errored:      "error",
}

func (o Outcome) String() string {
	if s, ok := OutcomeMap[o]; ok {
		return s
	}
	return "unknown"
}

// Attempt is the result of submitting one candidate password
type Attempt struct {
	Password   string
	Outcome    Outcome
	StatusCode int
	Duration   time.Duration
	Err        *AttemptError
}

// Description of the outcome as shown to the operator
func (a *Attempt) Description() string {
	switch a.Outcome {
	case Accepted:
		return "Login Successful (Unexpected)"
	case Rejected:
		return "Login Failed (Expected)"
	case Inconclusive:
		return "Inconclusive: Could not determine login status."
	case Errored:
		if a.Err == nil {
			return "Error: unknown"
		}
		if a.Err.Kind == Transport {
			return "Request Failed: " + a.Err.Error()
		}
		return "Error: " + a.Err.Error()
	}
	return "unknown"
}
