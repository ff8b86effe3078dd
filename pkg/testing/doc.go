// Package testing provides a deterministic frame harness for Zoetrope.
//
// # Quick Start
//
// Create a tester, build clocks wired to it and pump frames:
//
//	func TestFade(t *testing.T) {
//	    tester := zoetest.NewFrameTesterWithT(t)
//	    var last float64
//	    clock := tester.NewClock(animation.Options{
//	        Duration: 100 * time.Millisecond,
//	        OnTick:   func(p float64) { last = p },
//	    })
//	    clock.Play()
//	    tester.PumpFor(200 * time.Millisecond)
//	    if last != 1 {
//	        t.Errorf("last tick = %v, want 1", last)
//	    }
//	}
//
// # Time Control
//
// The fake clock only moves when asked:
//
//	tester.Clock().Advance(100 * time.Millisecond)
//	tester.Pump()
//
// Timers created through the tester (Clock.Loop) fire when the fake clock
// passes their deadline, on the next Pump.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import zoetest "github.com/go-drift/zoetrope/pkg/testing"
package testing
