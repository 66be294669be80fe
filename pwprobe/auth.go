package pwprobe

import "net/url"

// Credentials for a single login attempt against the target form
type Credentials struct {
	Username      string
	Password      string
	UsernameField string
	PasswordField string
}

// Form encodes the credentials as the login form's fields
func (c *Credentials) Form() url.Values {
	form := url.Values{}
	form.Set(c.UsernameField, c.Username)
	form.Set(c.PasswordField, c.Password)
	return form
}
