package testkit

import (
	"testing"
	"time"
)

var clockSeam = func() time.Time { return time.Unix(0, 0) }

func TestSwapRestores(t *testing.T) {
	fixed := Date(2020, time.January, 1)
	t.Run("swapped", func(t *testing.T) {
		Serial(t)
		Swap(t, &clockSeam, func() time.Time { return fixed })
		if !clockSeam().Equal(fixed) {
			t.Fatalf("swap not applied")
		}
	})
	if clockSeam().Unix() != 0 {
		t.Fatalf("swap not restored")
	}
}
