// Package lib embeds the governance reference documents for compile-time inclusion.
// It has no imports beyond embed so both loaders can depend on it without cycles.
//
// Usage:
//
//	bundle.Load(lib.FS, protocol.Resources())
package lib

import "embed"

//go:embed *.json
var FS embed.FS
