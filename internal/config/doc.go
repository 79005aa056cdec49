// Package config loads, validates, and normalizes the stylus TOML
// configuration.
//
// Thresholds, paths, and service endpoints are explicit configuration
// inputs passed into each component; nothing reads ambient global state.
// That keeps decisions reproducible in tests with varied thresholds.
package config
