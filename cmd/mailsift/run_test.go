package main

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeLoopReloadRestartsCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	cycles := 0
	started := make(chan struct{}, 4)

	cycle := func(cctx context.Context) error {
		mu.Lock()
		cycles++
		mu.Unlock()
		started <- struct{}{}
		<-cctx.Done()
		return cctx.Err()
	}

	reload := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- serveLoop(ctx, reload, cycle) }()

	<-started
	reload <- syscall.SIGHUP

	// A second cycle comes up after the reload tore the first one down.
	<-started

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, cycles)
}

func TestServeLoopReturnsCycleError(t *testing.T) {
	reload := make(chan os.Signal)

	err := serveLoop(context.Background(), reload, func(context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestServeLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reload := make(chan os.Signal)
	done := make(chan error, 1)

	go func() {
		done <- serveLoop(ctx, reload, func(cctx context.Context) error {
			<-cctx.Done()
			return cctx.Err()
		})
	}()

	cancel()
	require.NoError(t, <-done)
}
