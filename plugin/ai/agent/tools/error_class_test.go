package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"deadline", context.DeadlineExceeded, ErrorClassTransient},
		{"wrapped deadline", fmt.Errorf("translate: %w", context.DeadlineExceeded), ErrorClassTransient},
		{"canceled", context.Canceled, ErrorClassPermanent},
		{"invalid args", fmt.Errorf("%w: missing text", ErrInvalidArguments), ErrorClassPermanent},
		{"connection refused", errors.New("dial tcp 127.0.0.1:443: connection refused"), ErrorClassTransient},
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}, ErrorClassTransient},
		{"upstream 503", &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "busy"}, ErrorClassTransient},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad"}, ErrorClassPermanent},
		{"unauthorized", &openai.RequestError{HTTPStatusCode: http.StatusUnauthorized, Err: errors.New("no key")}, ErrorClassPermanent},
		{"unknown", errors.New("something odd"), ErrorClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.want, got.Class, got.Error())
			assert.Equal(t, tt.want == ErrorClassTransient, ShouldRetry(tt.err))
		})
	}

	assert.Nil(t, ClassifyError(nil))
	assert.False(t, ShouldRetry(nil))
}
