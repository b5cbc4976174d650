package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ciyex-org/ciyex-platform-sdk/pkg/response"
)

var (
	// ErrLengthMismatch is returned by UploadStream when the declared content
	// length disagrees with the number of bytes read from the stream.
	ErrLengthMismatch = errors.New("content length mismatch")
	// ErrInvalidExpiry is returned for presigned URL requests with expiry <= 0.
	ErrInvalidExpiry = errors.New("expiry must be positive")
)

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// StatusError reports a non-2xx response from the gateway.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: gateway returned %d", e.Method, e.Path, e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func newStatusError(req *http.Request, resp *http.Response) *StatusError {
	serr := &StatusError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return serr
	}
	env, err := response.Decode(body)
	if err != nil {
		return serr
	}
	if e, ok := env["error"].(map[string]any); ok {
		serr.Code, _ = e["code"].(string)
		serr.Message, _ = e["message"].(string)
	}
	return serr
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// gateway status error.
func StatusCode(err error) int {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the gateway answered 404 or 410.
func IsNotFound(err error) bool {
	code := StatusCode(err)
	return code == http.StatusNotFound || code == http.StatusGone
}
