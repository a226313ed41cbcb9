package observ

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_FoldsSameName(t *testing.T) {
	tm := NewTimer()
	now := time.Now()
	tm.Add("parse", now, 2*time.Millisecond, "")
	tm.Add("stage", now, 3*time.Millisecond, "")
	tm.Add("parse", now, 4*time.Millisecond, "2 files")

	r := tm.Report()
	require.Len(t, r.Phases, 2)
	assert.Equal(t, "parse", r.Phases[0].Name)
	assert.InDelta(t, 6.0, r.Phases[0].DurationMS, 1e-9)
	assert.Equal(t, 2, r.Phases[0].Count)
	assert.Equal(t, "2 files", r.Phases[0].Note)
	assert.InDelta(t, 9.0, r.TotalMS, 1e-9)

	s := tm.Summary()
	assert.True(t, strings.HasPrefix(s, "timings:\n"))
	assert.Contains(t, s, "x2")
	assert.Contains(t, s, "total")
}

func TestTimer_Concurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stop := tm.Start("rewrite")
			stop("")
		}()
	}
	wg.Wait()
	r := tm.Report()
	require.Len(t, r.Phases, 1)
	assert.Equal(t, 16, r.Phases[0].Count)
}

func TestTimer_Nil(t *testing.T) {
	var tm *Timer
	tm.Start("x")("")
	assert.Equal(t, Report{}, tm.Report())
}
