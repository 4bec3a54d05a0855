// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command aulactl is the operator tool of the aula authentication core:
// password digests for seeding user directories, strength checks and
// schema migrations of the PostgreSQL directory.
package main

import (
	"fmt"
	"os"

	"github.com/taibuivan/aula/internal/platform/constants"
)

// Build information set at link time.
var (
	commit = "unknown"
	date   = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", constants.AppVersion, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
