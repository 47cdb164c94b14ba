// Package appfs embeds files the binaries need at runtime, such as database
// migrations, so deployments ship a single executable.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
