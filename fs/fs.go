package appfs

import "embed"

// FS holds static app assets shipped with the binary.
//
//go:embed migrations
var FS embed.FS
