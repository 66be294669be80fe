package clicmds

import (
	"github.com/urfave/cli/v2"
	"gitlab.com/pwprobe/pwprobe"
)

func TestAuthFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "user",
			Usage: "username to auth with",
			Value: "test@test.com",
		},
		&cli.StringFlag{
			Name:  "pass",
			Usage: "password to auth with",
			Value: "testtest",
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "url to authenticate to",
			Value: "http://localhost/login",
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
			Name:  "success_regex",
			Usage: "regex to match for successful login",
		},
		&cli.StringFlag{
			Name:  "failure_regex",
			Usage: "regex to match for failed login",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "timeout for the login request",
			Value: pwprobe.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format (text or json)",
			Value: "text",
		},
	}
}

// TestAuth submits a single credential pair and reports how the form answered
func TestAuth(ctx *cli.Context) error {
	cfg := pwprobe.NewConfig()
	cfg.URL = ctx.String("url")
	cfg.Username = ctx.String("user")
	cfg.UsernameField = ctx.String("username_field")
	cfg.PasswordField = ctx.String("password_field")
	cfg.SuccessRegex = ctx.String("success_regex")
	cfg.FailureRegex = ctx.String("failure_regex")
	cfg.Timeout = ctx.Duration("timeout")
	cfg.TestPasswords = []string{ctx.String("pass")}
	return run(ctx, cfg)
}
