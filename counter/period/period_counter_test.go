package period

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRate(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := newPeriodCounter(time.Second, clk.now)

	c.Add(10)
	if c.RatePerSec() != 0 {
		t.Errorf("rate before a period = %d", c.RatePerSec())
	}

	clk.advance(2 * time.Second)
	c.Add(90)
	if c.Value() != 100 {
		t.Errorf("value = %d, want 100", c.Value())
	}
	if c.RatePerSec() != 50 {
		t.Errorf("rate = %d, want 50", c.RatePerSec())
	}
}

func TestReset(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := newPeriodCounter(time.Second, clk.now)
	c.Add(4)
	clk.advance(time.Second)
	c.Add(4)
	c.Reset()
	if c.Value() != 0 || c.RatePerSec() != 0 {
		t.Errorf("after Reset value = %d rate = %d", c.Value(), c.RatePerSec())
	}
	c.Add(2)
	if c.Value() != 2 {
		t.Errorf("value = %d, want 2", c.Value())
	}
}

func TestConcurrentAdd(t *testing.T) {
	c := NewPeriodCounter(time.Millisecond)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Add(2)
			}
		}()
	}
	wg.Wait()
	if c.Value() != 16000 {
		t.Errorf("value = %d, want 16000", c.Value())
	}
}
