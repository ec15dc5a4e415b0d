package clipboard

// NewForTest returns a System with an injected platform writer.
func NewForTest(unsupported bool, write func(string) error, opts ...Option) *System {
	s := NewSystem(opts...)
	s.unsupported = unsupported
	s.write = write
	return s
}
