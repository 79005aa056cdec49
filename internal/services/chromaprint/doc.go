// Package chromaprint wraps the fpcalc binary to compute acoustic
// fingerprints for audio files.
package chromaprint
