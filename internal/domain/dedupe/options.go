package dedupe

// Option configures a Tracker.
type Option func(*memTracker)

// WithMaxSize bounds the number of pending keys. When full, the oldest claim
// is dropped so a stuck job cannot block its employee forever.
// maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(t *memTracker) {
		t.maxSize = maxSize
	}
}
