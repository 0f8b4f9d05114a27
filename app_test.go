package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDrainWaitsForBackgroundLoops(t *testing.T) {
	a := &app{log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())

	var finished int32
	for i := 0; i < 2; i++ {
		a.background(func() {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
		})
	}

	a.drain(cancel)
	assert.Equal(t, int32(2), atomic.LoadInt32(&finished))
	assert.Error(t, ctx.Err())
}

func TestDrainWithoutBackgroundLoops(t *testing.T) {
	a := &app{log: zap.NewNop()}
	_, cancel := context.WithCancel(context.Background())

	start := time.Now()
	a.drain(cancel)
	assert.Less(t, time.Since(start), time.Second)
}
