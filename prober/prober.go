package prober

import (
	"context"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gitlab.com/pwprobe/pwprobe"
)

// Prober submits each candidate password to the login form in turn and
// classifies the response
type Prober struct {
	cfg     *pwprobe.Config
	poster  pwprobe.FormPoster
	logger  zerolog.Logger
	success *regexp2.Regexp
	failure *regexp2.Regexp
}

// New prober, returns a TopLevel *pwprobe.ProbeError if a pattern does not compile
func New(cfg *pwprobe.Config, poster pwprobe.FormPoster, logger zerolog.Logger) (*Prober, error) {
	p := &Prober{cfg: cfg, poster: poster, logger: logger.With().Str("component", "prober").Logger()}

	var err error
	if p.success, err = compile("success", cfg.SuccessRegex); err != nil {
		return nil, &pwprobe.ProbeError{Err: err}
	}
	if p.failure, err = compile("failure", cfg.FailureRegex); err != nil {
		return nil, &pwprobe.ProbeError{Err: err}
	}
	return p, nil
}

// matchTimeout bounds a single pattern match, backtracking patterns can
// otherwise run away on large bodies
const matchTimeout = 5 * time.Second

// compile with backtracking syntax (lookarounds, backreferences) allowed
func compile(name, pattern string) (*regexp2.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, errors.Wrapf(pwprobe.ErrInvalidPattern, "%s regex %q: %v", name, pattern, err)
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// Probe runs every candidate sequentially. Failures of a single attempt are
// recorded in the report; only failures outside the loop return an error.
// If ctx is done part way through, the attempts made so far are returned
// together with the error.
func (p *Prober) Probe(ctx context.Context) (*pwprobe.Report, error) {
	candidates, dropped, err := pwprobe.Candidates(p.cfg.TestPasswords)
	if err != nil {
		p.logger.Error().Err(err).Msg("an error occurred during password complexity testing")
		return nil, &pwprobe.ProbeError{Err: err}
	}
	for _, d := range dropped {
		p.logger.Warn().Str("password", d).Msg("duplicate password skipped, keeping first occurrence")
	}

	report := pwprobe.NewReport(uuid.New().String(), p.cfg.URL, p.cfg.Username)
	logger := p.logger.With().Str("run_id", report.ID).Str("url", p.cfg.URL).Str("username", p.cfg.Username).Logger()

	report.StartedAt = time.Now()
	defer func() { report.FinishedAt = time.Now() }()

	logger.Info().Int("passwords", len(candidates)).Msg("starting password complexity testing")
	for _, password := range candidates {
		if err := ctx.Err(); err != nil {
			logger.Error().Err(err).Int("completed", report.Len()).Msg("password complexity testing interrupted")
			return report, &pwprobe.ProbeError{Err: errors.Wrap(err, "probe interrupted")}
		}
		attempt := p.attempt(ctx, password)
		logAttempt(logger, attempt)
		report.Add(attempt)
	}
	return report, nil
}

// attempt never fails, any fault becomes an Errored attempt
func (p *Prober) attempt(ctx context.Context, password string) (attempt *pwprobe.Attempt) {
	attempt = &pwprobe.Attempt{Password: password}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			attempt.Outcome = pwprobe.Errored
			attempt.Err = &pwprobe.AttemptError{
				Kind:     pwprobe.Unexpected,
				Password: password,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
		attempt.Duration = time.Since(start)
	}()

	form := p.cfg.Credentials(password).Form()
	resp, err := p.poster.PostForm(ctx, p.cfg.URL, form)
	if resp != nil {
		attempt.StatusCode = resp.StatusCode
	}
	if err != nil {
		kind := pwprobe.Unexpected
		if pwprobe.IsTransport(err) {
			kind = pwprobe.Transport
		}
		attempt.Outcome = pwprobe.Errored
		attempt.Err = &pwprobe.AttemptError{Kind: kind, Password: password, StatusCode: attempt.StatusCode, Err: err}
		return attempt
	}
	if resp == nil {
		attempt.Outcome = pwprobe.Errored
		attempt.Err = &pwprobe.AttemptError{Kind: pwprobe.Unexpected, Password: password, Err: errors.New("no response")}
		return attempt
	}

	outcome, err := Classify(string(resp.Body), p.success, p.failure)
	if err != nil {
		attempt.Outcome = pwprobe.Errored
		attempt.Err = &pwprobe.AttemptError{Kind: pwprobe.Unexpected, Password: password, StatusCode: attempt.StatusCode, Err: err}
		return attempt
	}
	attempt.Outcome = outcome
	return attempt
}

// Classify a response body. success is checked first so a body matching
// both patterns is Accepted. A nil pattern never matches. An error means a
// match timed out.
func Classify(body string, success, failure *regexp2.Regexp) (pwprobe.Outcome, error) {
	if success != nil {
		matched, err := success.MatchString(body)
		if err != nil {
			return 0, errors.Wrap(err, "matching success regex")
		}
		if matched {
			return pwprobe.Accepted, nil
		}
	}
	if failure != nil {
		matched, err := failure.MatchString(body)
		if err != nil {
			return 0, errors.Wrap(err, "matching failure regex")
		}
		if matched {
			return pwprobe.Rejected, nil
		}
	}
	return pwprobe.Inconclusive, nil
}

func logAttempt(logger zerolog.Logger, attempt *pwprobe.Attempt) {
	switch attempt.Outcome {
	case pwprobe.Accepted:
		logger.Warn().Str("password", attempt.Password).Str("outcome", attempt.Outcome.String()).
			Msg("password successfully logged in, indicating a weak password policy")
	case pwprobe.Rejected:
		logger.Info().Str("password", attempt.Password).Str("outcome", attempt.Outcome.String()).
			Msg("password failed to login, which is expected")
	case pwprobe.Inconclusive:
		logger.Warn().Str("password", attempt.Password).Str("outcome", attempt.Outcome.String()).
			Msg("could not determine login status, check the success and failure regex")
	case pwprobe.Errored:
		msg := "an unexpected error occurred while testing password"
		if attempt.Err.Kind == pwprobe.Transport {
			msg = "request failed for password"
		}
		logger.Error().Err(attempt.Err.Err).Str("password", attempt.Password).
			Str("outcome", attempt.Outcome.String()).Str("kind", attempt.Err.Kind.String()).
			Int("status", attempt.StatusCode).Msg(msg)
	}
}
