package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/aws/smithy-go"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/openai/openai-go/v2"
	"google.golang.org/api/googleapi"
	vertex "google.golang.org/genai"
	"google.golang.org/grpc/codes"
)

// bedrockTransientCodes are the Bedrock error codes that mean "try another
// model" rather than "your request is wrong".
var bedrockTransientCodes = map[string]bool{
	"ThrottlingException":         true,
	"ServiceUnavailableException": true,
	"ModelNotReadyException":      true,
}

// TransientClassifier decides whether a backend failure should move the
// client on to the next candidate.
type TransientClassifier struct {
	codes   map[int]bool
	markers []string
}

func NewTransientClassifier(cfg config.Transient) *TransientClassifier {
	t := &TransientClassifier{codes: make(map[int]bool)}
	for _, c := range cfg.StatusCodes {
		t.codes[c] = true
	}
	for _, m := range cfg.Markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			t.markers = append(t.markers, m)
		}
	}
	return t
}

// IsTransient inspects typed provider errors first and falls back to
// searching the message for the configured markers. Cancellation is never
// transient.
func (t *TransientClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if code, ok := statusCode(err); ok && t.codes[code] {
		return true
	}

	var gaxErr *apierror.APIError
	if errors.As(err, &gaxErr) {
		if s := gaxErr.GRPCStatus(); s != nil && s.Code() == codes.Unavailable {
			return true
		}
	}

	var awsErr smithy.APIError
	if errors.As(err, &awsErr) && bedrockTransientCodes[awsErr.ErrorCode()] {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range t.markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// statusCode extracts an HTTP status from whichever SDK produced err.
func statusCode(err error) (int, bool) {
	var gaxErr *apierror.APIError
	if errors.As(err, &gaxErr) && gaxErr.HTTPCode() > 0 {
		return gaxErr.HTTPCode(), true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, true
	}
	var vErr vertex.APIError
	if errors.As(err, &vErr) {
		return vErr.Code, true
	}
	var vErrPtr *vertex.APIError
	if errors.As(err, &vErrPtr) {
		return vErrPtr.Code, true
	}
	var aErr *anthropic.Error
	if errors.As(err, &aErr) {
		return aErr.StatusCode, true
	}
	var oErr *openai.Error
	if errors.As(err, &oErr) {
		return oErr.StatusCode, true
	}
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.Code, true
	}
	return 0, false
}
