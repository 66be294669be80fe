package clicmds_test

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/pwprobe/clicmds"
	"gitlab.com/pwprobe/pwprobe"
)

type loginServer struct {
	*httptest.Server
	mu        sync.Mutex
	passwords []string
}

func newLoginServer() *loginServer {
	s := &loginServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pass := r.FormValue("password")
		if pass == "" {
			pass = r.FormValue("pw")
		}
		s.mu.Lock()
		s.passwords = append(s.passwords, pass)
		s.mu.Unlock()

		if r.FormValue("username") != "" && pass == "Password123!" {
			w.Write([]byte("Welcome back"))
			return
		}
		w.Write([]byte("Invalid credentials"))
	}))
	return s
}

func (s *loginServer) hits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.passwords...)
}

func newApp(out *bytes.Buffer) *cli.App {
	log.Logger = zerolog.New(ioutil.Discard)
	app := cli.NewApp()
	app.Writer = out
	app.Flags = clicmds.ProbeFlags()
	app.Action = clicmds.Probe
	app.Commands = []*cli.Command{
		{
			Name:    "testauth",
			Aliases: []string{"ta"},
			Usage:   "test a single credential pair",
			Action:  clicmds.TestAuth,
			Flags:   clicmds.TestAuthFlags(),
		},
	}
	return app
}

func TestProbe(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app",
		"--url", ts.URL,
		"--username", "admin",
		"--success_regex", "Welcome",
		"--failure_regex", "Invalid",
		"--test_passwords", "abc Password123!",
	})
	if err != nil {
		t.Fatalf("err: %s\n", err)
	}

	expected := "Password Complexity Analysis Results:\n" +
		"- Password: 'abc', Result: Login Failed (Expected)\n" +
		"- Password: 'Password123!', Result: Login Successful (Unexpected)\n"
	if out.String() != expected {
		t.Fatalf("expected:\n%s\ngot:\n%s\n", expected, out.String())
	}
}

func TestProbeDefaults(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app", "--url", ts.URL, "--username", "admin"})
	if err != nil {
		t.Fatalf("err: %s\n", err)
	}

	hits := ts.hits()
	if strings.Join(hits, " ") != strings.Join(pwprobe.DefaultTestPasswords, " ") {
		t.Fatalf("expected default passwords in order, got %v\n", hits)
	}
	if strings.Count(out.String(), "Inconclusive") != len(pwprobe.DefaultTestPasswords) {
		t.Fatalf("expected every attempt to be inconclusive without patterns:\n%s\n", out.String())
	}
}

func TestProbeValidation(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var inputs = []struct {
		args     []string
		expected error
	}{
		{[]string{"app", "--username", "admin"}, pwprobe.ErrMissingURL},
		{[]string{"app", "--url", ts.URL}, pwprobe.ErrMissingUsername},
		{[]string{"app", "--url", ts.URL, "--username", ""}, pwprobe.ErrMissingUsername},
		{[]string{"app", "--url", "not a url", "--username", "admin"}, pwprobe.ErrInvalidURL},
		{[]string{"app", "--url", ts.URL, "--username", "admin", "--success_regex", "(bad"}, pwprobe.ErrInvalidPattern},
		{[]string{"app", "--url", ts.URL, "--username", "admin", "--format", "xml"}, pwprobe.ErrUnsupportedFormat},
	}

	for _, in := range inputs {
		var out bytes.Buffer
		err := newApp(&out).Run(in.args)
		if !errors.Is(err, in.expected) {
			t.Fatalf("%v: expected %v got %v\n", in.args, in.expected, err)
		}
	}
	if hits := ts.hits(); len(hits) != 0 {
		t.Fatalf("expected no requests on invalid input, got %v\n", hits)
	}
}

func TestProbeConfigAndPasswordsFile(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	dir := t.TempDir()
	passwords := filepath.Join(dir, "passwords.txt")
	if err := ioutil.WriteFile(passwords, []byte("# weak\nletmein\nPassword123!\nletmein\n"), 0600); err != nil {
		t.Fatal(err)
	}
	config := filepath.Join(dir, "probe.toml")
	doc := "url = \"" + ts.URL + "\"\nusername = \"admin\"\npassword_field = \"pw\"\nsuccess_regex = \"Welcome\"\nfailure_regex = \"nomatch\"\n"
	if err := ioutil.WriteFile(config, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app",
		"--config", config,
		"--failure_regex", "Invalid",
		"--passwords_file", passwords,
	})
	if err != nil {
		t.Fatalf("err: %s\n", err)
	}

	if hits := ts.hits(); strings.Join(hits, ",") != "letmein,Password123!" {
		t.Fatalf("expected file passwords once each, got %v\n", hits)
	}
	expected := "Password Complexity Analysis Results:\n" +
		"- Password: 'letmein', Result: Login Failed (Expected)\n" +
		"- Password: 'Password123!', Result: Login Successful (Unexpected)\n"
	if out.String() != expected {
		t.Fatalf("expected:\n%s\ngot:\n%s\n", expected, out.String())
	}
}

func TestProbeErroredAttemptStillSucceeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("password") == "boom" {
			http.Error(w, "oops", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("Invalid"))
	}))
	defer ts.Close()

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app", "--url", ts.URL, "--username", "admin",
		"--failure_regex", "Invalid", "--test_passwords", "boom fine", "--format", "json"})
	if err != nil {
		t.Fatalf("an errored attempt must not fail the run: %s\n", err)
	}
	if !strings.Contains(out.String(), `"error_kind": "transport"`) || !strings.Contains(out.String(), `"outcome": "rejected"`) {
		t.Fatalf("unexpected json output:\n%s\n", out.String())
	}
}

func TestTestAuth(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app", "ta", "--url", ts.URL, "--user", "admin", "--pass", "Password123!",
		"--success_regex", "Welcome"})
	if err != nil {
		t.Fatalf("err: %s\n", err)
	}
	if !strings.Contains(out.String(), "- Password: 'Password123!', Result: Login Successful (Unexpected)") {
		t.Fatalf("unexpected output:\n%s\n", out.String())
	}
	if hits := ts.hits(); len(hits) != 1 {
		t.Fatalf("expected a single request, got %v\n", hits)
	}
}

func TestProbeTrailingPasswords(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app",
		"--url", ts.URL,
		"--username", "admin",
		"--success_regex", "Welcome",
		"--failure_regex", "Invalid",
		"--test_passwords", "abc", "Password123!", "letmein",
	})
	if err != nil {
		t.Fatalf("err: %s\n", err)
	}

	if hits := ts.hits(); strings.Join(hits, ",") != "abc,Password123!,letmein" {
		t.Fatalf("expected every trailing password to be tested, got %v\n", hits)
	}
	expected := "Password Complexity Analysis Results:\n" +
		"- Password: 'abc', Result: Login Failed (Expected)\n" +
		"- Password: 'Password123!', Result: Login Successful (Unexpected)\n" +
		"- Password: 'letmein', Result: Login Failed (Expected)\n"
	if out.String() != expected {
		t.Fatalf("expected:\n%s\ngot:\n%s\n", expected, out.String())
	}
}

func TestProbeStrayArguments(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"app", "--url", ts.URL, "--username", "admin", "abc", "letmein"})
	if !errors.Is(err, pwprobe.ErrUnexpectedArgs) {
		t.Fatalf("expected unexpected arguments error, got %v\n", err)
	}
	if hits := ts.hits(); len(hits) != 0 {
		t.Fatalf("expected no requests, got %v\n", hits)
	}
}

func TestIsReported(t *testing.T) {
	var inputs = []struct {
		err      error
		expected bool
	}{
		{pwprobe.ErrMissingURL, true},
		{fmt.Errorf("wrapped: %w", pwprobe.ErrInvalidURL), true},
		{&pwprobe.ProbeError{Err: pwprobe.ErrNoPasswords}, true},
		{&pwprobe.ProbeError{Err: pwprobe.ErrInvalidPattern}, true},
		{pwprobe.ErrUnexpectedArgs, true},
		{errors.New("disk on fire"), false},
		{fmt.Errorf("printing results: %w", errors.New("broken pipe")), false},
	}
	for _, in := range inputs {
		if got := clicmds.IsReported(in.err); got != in.expected {
			t.Fatalf("%v: expected %v got %v\n", in.err, in.expected, got)
		}
	}
}

func TestProbeErrorsAreReported(t *testing.T) {
	ts := newLoginServer()
	defer ts.Close()

	var inputs = [][]string{
		{"app", "--username", "admin"},
		{"app", "--url", ts.URL, "--username", "admin", "--failure_regex", "(bad"},
		{"app", "--url", ts.URL, "--username", "admin", "--format", "xml"},
	}
	for _, args := range inputs {
		var out bytes.Buffer
		err := newApp(&out).Run(args)
		if err == nil || !clicmds.IsReported(err) {
			t.Fatalf("%v: expected an already logged error, got %v\n", args, err)
		}
	}
}
