// Package scripts holds the default asset handler scripts.
package scripts

import "embed"

// FS contains import/<kind>.risor and delete/<kind>.risor handler scripts,
// each directory with a default.risor fallback.
//
//go:embed import delete
var FS embed.FS
