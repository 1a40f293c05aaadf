// Package schema checks request bodies against the embedded JSON schema
// before they are decoded into Go types.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed request.schema.json
var requestSchema []byte

// ErrInvalidRequest matches every *ValidationError.
var ErrInvalidRequest = errors.New("invalid request body")

// ValidationError carries a short, client-safe reason.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func requestValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("request.schema.json", bytes.NewReader(requestSchema)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("request.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateRequest reports whether body is a JSON document matching the
// extraction request schema. Failures are *ValidationError; a broken
// embedded schema is returned as a plain error.
func ValidateRequest(body []byte) error {
	s, err := requestValidator()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return &ValidationError{Detail: "request body is not valid JSON"}
	}
	if err := s.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Detail: describe(ve)}
		}
		return &ValidationError{Detail: err.Error()}
	}
	return nil
}

// describe reports the first leaf cause, located by JSON pointer.
func describe(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "body"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
