package pwprobe

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// HTTPResponse is what a FormPoster hands back after a submission
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// FormPoster submits form encoded login requests
type FormPoster interface {
	// PostForm sends form to target. A status of 400 or above is returned
	// as a *StatusError alongside the response.
	PostForm(ctx context.Context, target string, form url.Values) (*HTTPResponse, error)
	Close() error
}
