package sensor

// Multi fans a single Emit out to several sinks, e.g. a SlogSink for
// operators and a Bus for the live dashboard feed.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
