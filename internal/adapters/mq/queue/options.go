package queue

// Option applies a configuration option to the UpdateQueue.
type Option func(*UpdateQueue)

// WithCapacity bounds the number of pending envelopes. Zero or negative
// means unbounded.
func WithCapacity(capacity int) Option {
	return func(q *UpdateQueue) {
		q.capacity = max(capacity, 0)
	}
}

// WithInitialBuffer preallocates room for size envelopes.
func WithInitialBuffer(size int) Option {
	return func(q *UpdateQueue) {
		if size > 0 {
			q.bufferSize = size
		}
	}
}
