package tdice

import (
	"sync"
	"testing"

	"github.com/tutils/tdice/dice"
	"github.com/tutils/tdice/rng"
)

func TestSyncRoller(t *testing.T) {
	dc, err := dice.New(rng.KindMersenne)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()
	r := NewSyncRoller(dc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				roll, err := r.Roll()
				if err != nil || !roll.Valid() {
					t.Errorf("roll = %v, %v", roll, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	err = r.Do(func(Roller) error {
		if dc.Counter() != 8000 {
			t.Errorf("counter = %d, want 8000", dc.Counter())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
