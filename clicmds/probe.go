package clicmds

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/pwprobe/prober"
	"gitlab.com/pwprobe/prober/client"
	"gitlab.com/pwprobe/prober/report"
	"gitlab.com/pwprobe/pwprobe"
)

// ProbeFlags for the probe command
func ProbeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "URL of the login page",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "username",
			Usage: "username to use for testing",
		},
		&cli.StringFlag{
			Name:  "username_field",
			Usage: "name of the username field in the login form",
			Value: pwprobe.DefaultUsernameField,
		},
		&cli.StringFlag{
			Name:  "password_field",
			Usage: "name of the password field in the login form",
			Value: pwprobe.DefaultPasswordField,
		},
		&cli.StringFlag{
			Name:  "submit_xpath",
			Usage: "XPath to the submit button (currently unused)",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "success_regex",
			Usage: "regex to match for successful login",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "failure_regex",
			Usage: "regex to match for failed login",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "test_passwords",
			Usage: "passwords to test, either one space separated value or as the last flag followed by each password",
			Value: strings.Join(pwprobe.DefaultTestPasswords, " "),
		},
		&cli.StringFlag{
			Name:  "passwords_file",
			Usage: "file with one password per line, used instead of the defaults or appended to test_passwords",
			Value: "",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "timeout for each login request",
			Value: pwprobe.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:  "user_agent",
			Usage: "User-Agent header to send",
			Value: "",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip tls certificate verification",
			Value: false,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format (text or json)",
			Value: report.FormatText,
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "toml or yaml config to use, flags override its values",
			Value: "",
		},
	}
}

// Probe runs the password complexity analysis
func Probe(ctx *cli.Context) error {
	cfg, err := probeConfig(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to build config")
		return err
	}
	return run(ctx, cfg)
}

func run(ctx *cli.Context, cfg *pwprobe.Config) error {
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		return err
	}

	reporter, err := report.New(ctx.String("format"))
	if err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		return err
	}

	poster := client.New(
		client.WithTimeout(cfg.Timeout),
		client.WithUserAgent(cfg.UserAgent),
		client.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		client.WithLogger(log.Logger),
	)
	defer poster.Close()

	p, err := prober.New(cfg, poster, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("failed to create prober")
		return err
	}

	scanContext, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			log.Info().Msg("Ctrl-C Pressed, shutting down")
			cancel()
		case <-scanContext.Done():
		}
	}()

	results, probeErr := p.Probe(scanContext)
	if results != nil {
		if err := reporter.Print(writer(ctx), results); err != nil {
			return errors.Wrap(err, "printing results")
		}
	}
	return probeErr
}

func writer(ctx *cli.Context) io.Writer {
	if ctx.App != nil && ctx.App.Writer != nil {
		return ctx.App.Writer
	}
	return os.Stdout
}

// probeConfig layers defaults, the config file and explicitly set flags
func probeConfig(ctx *cli.Context) (*pwprobe.Config, error) {
	cfg := pwprobe.NewConfig()

	if path := ctx.String("config"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if cfg, err = pwprobe.ReadConfig(f, filepath.Ext(path)); err != nil {
			return nil, errors.Wrapf(err, "config %s", path)
		}
	}

	setString(ctx, "url", &cfg.URL)
	setString(ctx, "username", &cfg.Username)
	setString(ctx, "username_field", &cfg.UsernameField)
	setString(ctx, "password_field", &cfg.PasswordField)
	setString(ctx, "submit_xpath", &cfg.SubmitXPath)
	setString(ctx, "success_regex", &cfg.SuccessRegex)
	setString(ctx, "failure_regex", &cfg.FailureRegex)
	setString(ctx, "passwords_file", &cfg.PasswordsFile)
	setString(ctx, "user_agent", &cfg.UserAgent)
	if ctx.IsSet("test_passwords") {
		cfg.TestPasswords = append(strings.Fields(ctx.String("test_passwords")), ctx.Args().Slice()...)
	} else if ctx.NArg() > 0 {
		return nil, errors.Wrapf(pwprobe.ErrUnexpectedArgs, "%v", ctx.Args().Slice())
	}
	if ctx.IsSet("timeout") {
		cfg.Timeout = ctx.Duration("timeout")
	}
	if ctx.IsSet("insecure") {
		cfg.InsecureSkipVerify = ctx.Bool("insecure")
	}

	if cfg.PasswordsFile != "" {
		passwords, err := readPasswordsFile(cfg.PasswordsFile)
		if err != nil {
			return nil, err
		}
		cfg.TestPasswords = append(cfg.TestPasswords, passwords...)
	}
	cfg.UseDefaultPasswords()
	return cfg, nil
}

func setString(ctx *cli.Context, name string, dst *string) {
	if ctx.IsSet(name) {
		*dst = ctx.String(name)
	}
}

func readPasswordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening passwords file")
	}
	defer f.Close()
	return pwprobe.LoadPasswords(f)
}

// IsReported is true for errors the commands already logged: invalid
// arguments and top level probe failures
func IsReported(err error) bool {
	var probeErr *pwprobe.ProbeError
	if errors.As(err, &probeErr) {
		return true
	}
	for _, known := range []error{
		pwprobe.ErrMissingURL,
		pwprobe.ErrMissingUsername,
		pwprobe.ErrInvalidURL,
		pwprobe.ErrMissingField,
		pwprobe.ErrInvalidTimeout,
		pwprobe.ErrUnsupportedFormat,
		pwprobe.ErrUnexpectedArgs,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
