// Package message decodes raw remote-queue message bodies into
// task.Invocation values. Two body shapes are accepted: a native JSON
// object, and a Celery v1 wrapper carrying a base64-encoded legacy
// pickled mapping (spec.md §4.2, §6).
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pyqs-go/pyqs/internal/task"
)

// DecodeError reports that a raw message body could not be turned into
// a task.Invocation. The caller's policy is delete-and-record, never
// retry-in-place.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("decode error: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

type nativeBody struct {
	Task   string                 `json:"task"`
	Args   []interface{}          `json:"args"`
	Kwargs map[string]interface{} `json:"kwargs"`
}

type wrappedBody struct {
	Body string `json:"body"`
}

// Decode parses raw into a task.Invocation, trying the native JSON
// shape first and falling back to the legacy wrapped shape.
func Decode(raw []byte) (task.Invocation, error) {
	var native nativeBody
	if err := json.Unmarshal(raw, &native); err == nil && native.Task != "" {
		return task.Invocation{
			Task:   native.Task,
			Args:   orEmptyArgs(native.Args),
			Kwargs: orEmptyKwargs(native.Kwargs),
		}, nil
	}

	var wrapped wrappedBody
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return task.Invocation{}, &DecodeError{Reason: "body is neither native JSON nor a wrapped legacy payload", Cause: err}
	}
	if wrapped.Body == "" {
		return task.Invocation{}, &DecodeError{Reason: "wrapped payload missing \"body\" field"}
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, wrapped.Body)
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return task.Invocation{}, &DecodeError{Reason: "wrapped payload body is not valid base64", Cause: err}
	}

	unpickled, err := legacyUnpickle(decoded)
	if err != nil {
		return task.Invocation{}, &DecodeError{Reason: "wrapped payload body is not a supported legacy pickle mapping", Cause: err}
	}

	m, ok := unpickled.(map[string]interface{})
	if !ok {
		return task.Invocation{}, &DecodeError{Reason: "legacy pickle mapping did not decode to a dict"}
	}

	taskName, ok := m["task"].(string)
	if !ok || taskName == "" {
		return task.Invocation{}, &DecodeError{Reason: "legacy pickle mapping missing \"task\" key"}
	}

	args, err := asArgs(m["args"])
	if err != nil {
		return task.Invocation{}, &DecodeError{Reason: "legacy pickle mapping \"args\" is malformed", Cause: err}
	}
	kwargs, err := asKwargs(m["kwargs"])
	if err != nil {
		return task.Invocation{}, &DecodeError{Reason: "legacy pickle mapping \"kwargs\" is malformed", Cause: err}
	}

	return task.Invocation{
		Task:   taskName,
		Args:   args,
		Kwargs: kwargs,
	}, nil
}

func orEmptyArgs(args []interface{}) []interface{} {
	if args == nil {
		return []interface{}{}
	}
	return args
}

func orEmptyKwargs(kwargs map[string]interface{}) map[string]interface{} {
	if kwargs == nil {
		return map[string]interface{}{}
	}
	return kwargs
}

func asArgs(v interface{}) ([]interface{}, error) {
	if v == nil {
		return []interface{}{}, nil
	}
	lst, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	return lst, nil
}

func asKwargs(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a dict, got %T", v)
	}
	return m, nil
}
