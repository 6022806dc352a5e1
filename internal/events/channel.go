package events

// SubscribeToChannel forwards events of type T to ch for consumers that
// select over several sources, such as the SSE stream. An event is dropped
// when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	if bus == nil {
		return func() {}
	}
	return subscribe(bus, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
