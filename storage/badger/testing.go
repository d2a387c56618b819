package badger

// NewMemoryStore creates an in-memory store for testing.
// Caller must close the store when done.
func NewMemoryStore(opts ...StoreOption) (*Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}
