// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for TITAN.
package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("connection refused")
	te := New(CodeProviderResponse, "provider call failed", cause)

	if te.Code != CodeProviderResponse {
		t.Errorf("expected CodeProviderResponse, got %v", te.Code)
	}
	if te.Message != "provider call failed" {
		t.Errorf("expected message 'provider call failed', got %q", te.Message)
	}
	if te.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(te, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestWithContext(t *testing.T) {
	te := New(CodeUpstreamProvider, "llm call failed", nil)
	te.WithContext("processor", "SentimentAnalysis").
		WithContext("block_type", "sentiment")

	if te.Context["processor"] != "SentimentAnalysis" {
		t.Errorf("expected context processor to be 'SentimentAnalysis'")
	}
	if te.Context["block_type"] != "sentiment" {
		t.Errorf("expected context block_type to be set")
	}
}

func TestWithAttribute(t *testing.T) {
	te := New(CodeTimeout, "provider timed out", nil)
	te.WithAttribute("provider", "yandexgpt").
		WithAttribute("attempt", "3")

	if te.Attributes["provider"] != "yandexgpt" {
		t.Errorf("expected attribute provider")
	}
	if te.Attributes["attempt"] != "3" {
		t.Errorf("expected attribute attempt")
	}
}

func TestRecoverableDefaults(t *testing.T) {
	if !New(CodeTimeout, "t", nil).Recoverable {
		t.Errorf("expected provider timeouts to default to recoverable")
	}
	if !New(CodeProviderResponse, "t", nil).Recoverable {
		t.Errorf("expected provider response errors to default to recoverable")
	}
	if New(CodeDuplicateName, "t", nil).Recoverable {
		t.Errorf("expected registration errors to default to non-recoverable")
	}
	if New(CodeProviderNotConfigured, "t", nil).Recoverable {
		t.Errorf("expected missing credentials to default to non-recoverable")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		te       *TitanError
		expected string
	}{
		{
			name:     "with cause",
			te:       New(CodeTimeout, "provider call timed out", errors.New("deadline exceeded")),
			expected: "[TIMEOUT] provider call timed out: deadline exceeded",
		},
		{
			name:     "without cause",
			te:       New(CodeNotFound, "no processor for block type", nil),
			expected: "[NOT_FOUND] no processor for block type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.te.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCode(t *testing.T) {
	if Code(nil) != "" {
		t.Errorf("expected empty code for nil error")
	}
	if Code(errors.New("plain")) != CodeInternal {
		t.Errorf("expected CodeInternal for untyped error")
	}
	if Code(New(CodeUnlicensed, "gated", nil)) != CodeUnlicensed {
		t.Errorf("expected CodeUnlicensed")
	}
}

func TestIs(t *testing.T) {
	te := New(CodeDuplicateName, "already registered", nil)
	if !Is(te, CodeDuplicateName) {
		t.Errorf("expected Is to match the code")
	}
	if Is(te, CodeNotFound) {
		t.Errorf("expected Is to reject a different code")
	}
	if Is(errors.New("plain"), CodeInternal) {
		t.Errorf("expected Is to reject untyped errors")
	}
}

func TestAsTitanError(t *testing.T) {
	te := New(CodeInvalidInput, "bad input", nil)
	if AsTitanError(te) != te {
		t.Errorf("expected identity for TitanError")
	}
	wrapped := AsTitanError(errors.New("plain"))
	if wrapped.Code != CodeInternal {
		t.Errorf("expected untyped errors to wrap as CodeInternal")
	}
	if AsTitanError(nil) != nil {
		t.Errorf("expected nil for nil error")
	}
}

func TestMarshalJSON(t *testing.T) {
	te := New(CodeProviderNotConfigured, "no credential for provider", nil).
		WithContext("provider", "missing")
	data, err := json.Marshal(te)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["code"] != string(CodeProviderNotConfigured) {
		t.Errorf("expected code field in JSON, got %v", decoded["code"])
	}
	if decoded["recoverable"] != false {
		t.Errorf("expected recoverable false in JSON")
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{CodeNotFound, 404},
		{CodeDuplicateName, 409},
		{CodeUnsupportedInput, 400},
		{CodeTimeout, 408},
		{CodeUnlicensed, 403},
		{CodeProviderNotConfigured, 501},
		{CodeUpstreamProvider, 502},
		{CodeInternal, 500},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x", nil).StatusCode; got != tt.status {
			t.Errorf("code %s: expected status %d, got %d", tt.code, tt.status, got)
		}
	}
}
