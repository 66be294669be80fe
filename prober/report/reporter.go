package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/pwprobe/pwprobe"
)

// Formats a Reporter can print
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New reporter for format
func New(format string) (pwprobe.Reporter, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return &TextReporter{}, nil
	case FormatJSON:
		return &JSONReporter{Indent: "  "}, nil
	}
	return nil, errors.Wrapf(pwprobe.ErrUnsupportedFormat, "report format %q", format)
}

// TextReporter prints one line per password
type TextReporter struct{}

// Print the report
func (r *TextReporter) Print(writer io.Writer, report *pwprobe.Report) error {
	if _, err := fmt.Fprintln(writer, "Password Complexity Analysis Results:"); err != nil {
		return err
	}
	for _, attempt := range report.Attempts {
		if _, err := fmt.Fprintf(writer, "- Password: '%s', Result: %s\n", attempt.Password, attempt.Description()); err != nil {
			return err
		}
	}
	return nil
}

// JSONReporter prints the report as a single json document
type JSONReporter struct {
	Indent string
}

type jsonAttempt struct {
	Password   string `json:"password"`
	Outcome    string `json:"outcome"`
	Result     string `json:"result"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

type jsonReport struct {
	ID         string         `json:"id"`
	Target     string         `json:"target"`
	Username   string         `json:"username"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Attempts   []jsonAttempt  `json:"attempts"`
	Summary    map[string]int `json:"summary"`
}

// Print the report
func (r *JSONReporter) Print(writer io.Writer, report *pwprobe.Report) error {
	out := jsonReport{
		ID:         report.ID,
		Target:     report.Target,
		Username:   report.Username,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Attempts:   make([]jsonAttempt, 0, report.Len()),
		Summary:    make(map[string]int, len(pwprobe.OutcomeMap)),
	}
	for outcome, name := range pwprobe.OutcomeMap {
		out.Summary[name] = report.Count(outcome)
	}

	for _, attempt := range report.Attempts {
		a := jsonAttempt{
			Password:   attempt.Password,
			Outcome:    attempt.Outcome.String(),
			Result:     attempt.Description(),
			StatusCode: attempt.StatusCode,
			DurationMS: attempt.Duration.Milliseconds(),
		}
		if attempt.Err != nil {
			a.ErrorKind = attempt.Err.Kind.String()
			a.Error = attempt.Err.Error()
		}
		out.Attempts = append(out.Attempts, a)
	}

	enc := json.NewEncoder(writer)
	enc.SetIndent("", r.Indent)
	return errors.Wrap(enc.Encode(out), "encoding report")
}
