package biz

import (
	"math/rand/v2"

	"velora/cmd/assistant-service/internal/domain"
)

type globalRandom struct{}

func (globalRandom) Intn(n int) int {
	return rand.IntN(n)
}

// NewRandomSource 进程级随机源，用于选择回复变体
func NewRandomSource() domain.RandomSource {
	return globalRandom{}
}
