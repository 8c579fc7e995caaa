package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReal_Now(t *testing.T) {
	for i := 0; i < 100; i++ {
		now := Real().Now()
		assert.Equal(t, time.UTC, now.Location())
		assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
	}
}

func TestFake_Advance(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)
	ch := fake.After(time.Minute)
	require.Equal(t, 1, fake.Waiters())

	fake.Advance(59 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	fake.Advance(time.Second)
	select {
	case at := <-ch:
		assert.True(t, at.Equal(start.Add(time.Minute)))
	default:
		t.Fatal("did not fire")
	}
	assert.Zero(t, fake.Waiters())
}
