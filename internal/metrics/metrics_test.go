package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestButtonMetrics(t *testing.T) {
	before := GetSnapshot()
	pressed := testutil.ToFloat64(buttonTransitions.WithLabelValues("pressed"))

	IncButtonTransition("pressed")
	IncPublishFailure()

	if got := testutil.ToFloat64(buttonTransitions.WithLabelValues("pressed")); got != pressed+1 {
		t.Errorf("transitions{pressed} = %v, want %v", got, pressed+1)
	}

	after := GetSnapshot()
	if after.ButtonTransitions != before.ButtonTransitions+1 {
		t.Errorf("ButtonTransitions = %d, want %d", after.ButtonTransitions, before.ButtonTransitions+1)
	}
	if after.PublishFailures != before.PublishFailures+1 {
		t.Errorf("PublishFailures = %d, want %d", after.PublishFailures, before.PublishFailures+1)
	}
}

func TestNetworkState(t *testing.T) {
	SetNetworkState("", "connecting")
	SetNetworkState("connecting", "connected")

	if got := testutil.ToFloat64(networkState.WithLabelValues("connecting")); got != 0 {
		t.Errorf("state{connecting} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(networkState.WithLabelValues("connected")); got != 1 {
		t.Errorf("state{connected} = %v, want 1", got)
	}
}

func TestSessionAndMessages(t *testing.T) {
	SetSessionConnected("listener", true)
	if got := testutil.ToFloat64(sessionConnected.WithLabelValues("listener")); got != 1 {
		t.Errorf("connected{listener} = %v, want 1", got)
	}
	SetSessionConnected("listener", false)
	if got := testutil.ToFloat64(sessionConnected.WithLabelValues("listener")); got != 0 {
		t.Errorf("connected{listener} = %v, want 0", got)
	}

	before := GetSnapshot()
	IncMessage(ResultOn)
	IncMessage(ResultMalformed)
	IncMessage(ResultUnknown)
	after := GetSnapshot()

	if after.MessagesReceived-before.MessagesReceived != 3 {
		t.Errorf("MessagesReceived delta = %d, want 3", after.MessagesReceived-before.MessagesReceived)
	}
	if after.MessagesRejected-before.MessagesRejected != 2 {
		t.Errorf("MessagesRejected delta = %d, want 2", after.MessagesRejected-before.MessagesRejected)
	}
}

func TestLEDMetrics(t *testing.T) {
	ObserveRender(0xFFFFFF)
	if got := testutil.ToFloat64(ledColor); got != 0xFFFFFF {
		t.Errorf("color = %v, want %v", got, float64(0xFFFFFF))
	}

	SetFallbackActive(true)
	if got := testutil.ToFloat64(fallbackActive); got != 1 {
		t.Errorf("fallback_active = %v, want 1", got)
	}
	SetFallbackActive(false)
	if got := testutil.ToFloat64(fallbackActive); got != 0 {
		t.Errorf("fallback_active = %v, want 0", got)
	}
}

func TestSnapshotConcurrentAccess(t *testing.T) {
	before := GetSnapshot()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				ObserveRender(0)
				_ = GetSnapshot()
			}
		}()
	}
	wg.Wait()

	if got := GetSnapshot().Renders - before.Renders; got != 1000 {
		t.Errorf("Renders delta = %d, want 1000", got)
	}
}
