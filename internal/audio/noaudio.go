//go:build !cgo || noaudio

package audio

// Builds without cgo (or with the noaudio tag) register no backend, so
// NewHost always fails with ErrNoBackend.
