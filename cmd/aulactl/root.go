// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the aulactl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aulactl",
		Short: "aulactl - operator tool for the aula authentication core",
		Long: `aulactl produces and checks bcrypt password digests for the user
directory and applies schema migrations to the PostgreSQL directory.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewCheckPasswordCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
