package data

import (
	"testing"

	"velora/cmd/analytics-service/internal/conf"
	"velora/pkg/middleware"

	"github.com/stretchr/testify/assert"
)

func TestNewRateCounter(t *testing.T) {
	assert.IsType(t, &middleware.MemoryCounter{}, NewRateCounter(NewMemoryStore()))

	rs := NewRedisStore(conf.RedisConfig{Addr: "localhost:0"})
	defer rs.Close()
	assert.IsType(t, &middleware.RedisCounter{}, NewRateCounter(rs))
}
