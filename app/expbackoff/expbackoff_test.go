// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package expbackoff_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/starsign/app/expbackoff"
)

func TestFastConfig(t *testing.T) {
	expbackoff.SetRandFloatForT(t, func() float64 {
		return 0.5 // No jitter.
	})

	expect := []string{"100ms", "160ms", "250ms", "400ms", "650ms", "1.04s", "1.67s", "2.68s", "4.29s", "5s", "5s"}

	var resps []string
	for i := range len(expect) {
		resp := expbackoff.Backoff(expbackoff.FastConfig, i)
		resps = append(resps, resp.Truncate(time.Millisecond*10).String())
	}

	require.Equal(t, expect, resps)
}

func TestNew(t *testing.T) {
	t0 := time.Now()
	now := t0

	expbackoff.SetAfterForT(t, func(d time.Duration) <-chan time.Time {
		now = now.Add(d)

		ch := make(chan time.Time, 1)
		ch <- now

		return ch
	})

	ctx, cancel := context.WithCancel(context.Background())

	backoff := expbackoff.New(ctx, expbackoff.WithConfig(expbackoff.Config{
		BaseDelay:  time.Second,
		Multiplier: 2,
		Jitter:     0,
		MaxDelay:   time.Hour,
	}))

	elapsed := func(t *testing.T, expect string) {
		t.Helper()
		require.Equal(t, expect, now.Sub(t0).Truncate(time.Millisecond*10).String())
	}

	backoff()
	elapsed(t, "1s") // +1s
	backoff()
	elapsed(t, "3s") // +2s
	backoff()
	elapsed(t, "7s") // +4s

	cancel()
	backoff()
	elapsed(t, "7s") // +0s
}
