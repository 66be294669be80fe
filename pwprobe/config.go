package pwprobe

import (
	"bufio"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither a config file nor a flag sets a value
const (
	DefaultUsernameField = "username"
	DefaultPasswordField = "password"
	DefaultTimeout       = 30 * time.Second
)

// DefaultTestPasswords are tried when no candidates are supplied
var DefaultTestPasswords = []string{"Password123!", "WeakPassword", "123456", "password", "P@sswOrd"}

// Config for a probe run
type Config struct {
	URL           string `toml:"url" yaml:"url"`
	Username      string `toml:"username" yaml:"username"`
	UsernameField string `toml:"username_field" yaml:"username_field"`
	PasswordField string `toml:"password_field" yaml:"password_field"`
	// SubmitXPath is reserved, forms are submitted as a raw POST
	SubmitXPath   string   `toml:"submit_xpath" yaml:"submit_xpath"`
	SuccessRegex  string   `toml:"success_regex" yaml:"success_regex"`
	FailureRegex  string   `toml:"failure_regex" yaml:"failure_regex"`
	TestPasswords []string `toml:"test_passwords" yaml:"test_passwords"`
	PasswordsFile string   `toml:"passwords_file" yaml:"passwords_file"`

	Timeout            time.Duration `toml:"-" yaml:"-"`
	TimeoutStr         string        `toml:"timeout" yaml:"timeout"`
	UserAgent          string        `toml:"user_agent" yaml:"user_agent"`
	InsecureSkipVerify bool          `toml:"insecure" yaml:"insecure"`
}

// NewConfig with defaults filled in. TestPasswords is left empty so callers
// can tell whether candidates were supplied, see UseDefaultPasswords.
func NewConfig() *Config {
	return &Config{
		UsernameField: DefaultUsernameField,
		PasswordField: DefaultPasswordField,
		Timeout:       DefaultTimeout,
	}
}

// UseDefaultPasswords fills TestPasswords with DefaultTestPasswords if no candidates were given
func (c *Config) UseDefaultPasswords() {
	if len(c.TestPasswords) != 0 {
		return
	}
	c.TestPasswords = make([]string, len(DefaultTestPasswords))
	copy(c.TestPasswords, DefaultTestPasswords)
}

// Credentials this run submits for a single candidate
func (c *Config) Credentials(password string) *Credentials {
	return &Credentials{
		Username:      c.Username,
		Password:      password,
		UsernameField: c.UsernameField,
		PasswordField: c.PasswordField,
	}
}

// ReadConfig decodes a toml or yaml document, fields it leaves empty get
// the defaults from NewConfig
func ReadConfig(r io.Reader, format string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml", "":
		if err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decoding toml config")
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "decoding yaml config")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "config format %q", format)
	}

	defaults := NewConfig()
	if cfg.UsernameField == "" {
		cfg.UsernameField = defaults.UsernameField
	}
	if cfg.PasswordField == "" {
		cfg.PasswordField = defaults.PasswordField
	}
	cfg.Timeout = defaults.Timeout
	if cfg.TimeoutStr != "" {
		d, err := time.ParseDuration(cfg.TimeoutStr)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidTimeout, "%q", cfg.TimeoutStr)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// Validate the config before any request is sent
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	if c.Username == "" {
		return ErrMissingUsername
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.Wrapf(ErrInvalidURL, "%s: %v", c.URL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(ErrInvalidURL, "%s: expected an absolute http(s) url", c.URL)
	}

	if c.UsernameField == "" {
		return errors.Wrap(ErrMissingField, "username field")
	}
	if c.PasswordField == "" {
		return errors.Wrap(ErrMissingField, "password field")
	}
	if c.Timeout <= 0 {
		return errors.Wrapf(ErrInvalidTimeout, "%s", c.Timeout)
	}
	return nil
}

// LoadPasswords reads one candidate per line, skipping blank lines and # comments.
// Lines are not trimmed beyond the line ending so leading or trailing spaces
// in a candidate survive.
func LoadPasswords(r io.Reader) ([]string, error) {
	passwords := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		passwords = append(passwords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading passwords")
	}
	return passwords, nil
}

// Candidates returns passwords in input order with later duplicates removed.
// dropped holds each duplicate that was removed, in the order it was seen.
func Candidates(passwords []string) (candidates []string, dropped []string, err error) {
	if len(passwords) == 0 {
		return nil, nil, ErrNoPasswords
	}

	seen := make(map[string]struct{}, len(passwords))
	candidates = make([]string, 0, len(passwords))
	for _, p := range passwords {
		if _, exist := seen[p]; exist {
			dropped = append(dropped, p)
			continue
		}
		seen[p] = struct{}{}
		candidates = append(candidates, p)
	}
	return candidates, dropped, nil
}
