// Package textutil provides small text helpers shared across stages:
// filesystem-safe name sanitization and display title casing.
package textutil
