package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestCategorizeError maps representative errors to their stable labels.
func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorCategoryTimeout},
		{name: "invalid key sentinel", err: fmt.Errorf("wrap: %w", ErrInvalidAPIKey), want: ErrorCategoryInvalidAPIKey},
		{name: "upstream 401", err: &UpstreamError{Status: 401}, want: ErrorCategoryInvalidAPIKey},
		{name: "upstream 429", err: &UpstreamError{Status: 429}, want: ErrorCategoryRateLimited},
		{name: "upstream 503", err: &UpstreamError{Status: 503}, want: ErrorCategoryUpstream5xx},
		{name: "upstream 404", err: &UpstreamError{Status: 404}, want: ErrorCategoryUpstream4xx},
		{name: "wrapped upstream", err: fmt.Errorf("fetch: %w", &UpstreamError{Status: 502}), want: ErrorCategoryUpstream5xx},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: ErrorCategoryNetwork},
		{name: "parse failure", err: errors.New("parse geocode response: unexpected end"), want: ErrorCategoryParsing},
		{name: "anything else", err: errors.New("mystery"), want: ErrorCategoryUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CategorizeError(tc.err); got != tc.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
