package llm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"google.golang.org/genai"
)

// ErrorKind tags the cause of a failed request for operators.
type ErrorKind int

const (
	// KindConfiguration means the model identifier is unknown or its provider is misconfigured.
	KindConfiguration ErrorKind = iota + 1
	// KindCredential means the provider's secret was unset at first use.
	KindCredential
	// KindTransport covers connection and network faults, including deadlines.
	KindTransport
	// KindProtocol means a chunk had an unrecognized shape.
	KindProtocol
	// KindUpstream means the provider answered with an application-level error.
	KindUpstream
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindCredential:
		return "credential"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is a fault raised inside the chat core.
type Error struct {
	Kind  ErrorKind
	Op    string
	Model string
	Err   error

	// stack is the goroutine stack captured where a panic was recovered.
	stack []byte
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Model != "" {
		msg += fmt.Sprintf(" (model %s)", e.Model)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Classify maps any error to an ErrorKind. Errors already tagged keep their kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return 0
	}

	var coreErr *Error
	if errors.As(err, &coreErr) && coreErr.Kind != 0 {
		return coreErr.Kind
	}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var anthropicErr *anthropic.Error
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) || errors.As(err, &anthropicErr) {
		return KindUpstream
	}

	var arkErr *arkmodel.APIError
	var arkReqErr *arkmodel.RequestError
	if errors.As(err, &arkErr) || errors.As(err, &arkReqErr) {
		return KindUpstream
	}

	// The Gemini SDK returns APIError by value; accept both forms.
	var geminiErr genai.APIError
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErr) || errors.As(err, &geminiErrPtr) {
		return KindUpstream
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindProtocol
	}

	// Network faults, deadlines, cancellation and truncated bodies.
	return KindTransport
}

// wrapError tags err with op and model, keeping an existing kind.
// A tagged error is copied, never modified in place.
func wrapError(op, model string, err error) *Error {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		tagged := *coreErr
		if tagged.Op == "" {
			tagged.Op = op
		}
		if tagged.Model == "" {
			tagged.Model = model
		}
		return &tagged
	}
	return &Error{Kind: Classify(err), Op: op, Model: model, Err: err}
}
