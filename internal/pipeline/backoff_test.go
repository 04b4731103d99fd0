package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestNextBackoff(t *testing.T) {
	d := initialBackoff
	var seen []time.Duration
	for range 7 {
		d = nextBackoff(d)
		seen = append(seen, d)
	}
	assert.Equal(t, []time.Duration{
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		maxBackoff,
		maxBackoff,
		maxBackoff,
	}, seen)
}

func TestSleep_ContextCancelled(t *testing.T) {
	p := &Pipeline{clock: clockwork.NewFakeClock()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, p.sleep(ctx, time.Hour))
	assert.True(t, p.sleep(ctx, 0))
}
