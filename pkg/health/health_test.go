package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker_IsReady(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		ready    bool
	}{
		{"无检查器", nil, true},
		{"全部健康", []Checker{NewPingChecker("store", func(context.Context) error { return nil })}, true},
		{
			"存在不健康",
			[]Checker{
				NewPingChecker("store", func(context.Context) error { return nil }),
				NewPingChecker("redis", func(context.Context) error { return errors.New("connection refused") }),
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(tt.checkers...)
			ready, results := h.IsReady(context.Background())
			assert.Equal(t, tt.ready, ready)
			assert.Len(t, results, len(tt.checkers))
		})
	}
}

func TestPingChecker_ReportsError(t *testing.T) {
	c := NewPingChecker("redis", func(context.Context) error { return errors.New("timeout") })
	result := c.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "timeout", result.Error)
	assert.Equal(t, "redis", c.Name())
}
