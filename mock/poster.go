package mock

import (
	"context"
	"net/url"

	"gitlab.com/pwprobe/pwprobe"
)

// FormPoster records submissions and answers with PostFormFn
type FormPoster struct {
	PostFormFn     func(ctx context.Context, target string, form url.Values) (*pwprobe.HTTPResponse, error)
	PostFormCalled bool
	Forms          []url.Values

	CloseFn     func() error
	CloseCalled bool
}

// PostForm to the mock
func (p *FormPoster) PostForm(ctx context.Context, target string, form url.Values) (*pwprobe.HTTPResponse, error) {
	p.PostFormCalled = true
	p.Forms = append(p.Forms, form)
	return p.PostFormFn(ctx, target, form)
}

// Close the mock
func (p *FormPoster) Close() error {
	p.CloseCalled = true
	return p.CloseFn()
}

// MakeMockFormPoster answers every submission with a 200 and an empty body
func MakeMockFormPoster() *FormPoster {
	p := &FormPoster{}
	p.PostFormFn = func(ctx context.Context, target string, form url.Values) (*pwprobe.HTTPResponse, error) {
		return &pwprobe.HTTPResponse{StatusCode: 200}, nil
	}
	p.CloseFn = func() error {
		return nil
	}
	return p
}

// MakeBodyFormPoster answers with the body mapped to the submitted password field,
// passwords missing from bodies get an empty 200
func MakeBodyFormPoster(passwordField string, bodies map[string]string) *FormPoster {
	p := MakeMockFormPoster()
	p.PostFormFn = func(ctx context.Context, target string, form url.Values) (*pwprobe.HTTPResponse, error) {
		return &pwprobe.HTTPResponse{StatusCode: 200, Body: []byte(bodies[form.Get(passwordField)])}, nil
	}
	return p
}
