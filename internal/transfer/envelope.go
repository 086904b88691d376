// Package transfer implements the Scanner/Checker/Reader/Writer pipeline
// stages. Every channel between stages carries Envelope[T] values so "end of
// stream" is an explicit value, not an out-of-band channel close — the
// Coordinator injects one End envelope per downstream worker after joining
// the stage upstream of it, mirroring the Python original's TombStone
// markers (_examples/original_source/redis_data_transfer/processing.py).
package transfer

// Envelope carries either a batch of items or an end-of-stream marker.
type Envelope[T any] struct {
	Items []T
	End   bool
}

// KeyValue is a DUMP result: Value is the opaque RDB blob for Key, or Null
// when the key no longer existed by the time the Reader dumped it.
type KeyValue struct {
	Key   string
	Value string
	Null  bool
}
