// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/platform/validate"
)

var (
	errMismatch     = errors.New("password does not match digest")
	errWeakPassword = errors.New("password does not meet the strength policy")
)

// NewHashCmd creates the hash subcommand.
func NewHashCmd() *cobra.Command {
	var (
		cost  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "hash <password>",
		Short: "Print a bcrypt digest for a password",
		Long: `Print a bcrypt digest suitable for the "password" field of a user
document. Weak passwords are refused unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := args[0]

			if !force {
				if violations := validate.PasswordViolations(password); len(violations) > 0 {
					printViolations(cmd, violations)
					return errWeakPassword
				}
			}

			if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
				return fmt.Errorf("--cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
			}

			digest, err := sec.NewPasswordHasher(cost).Hash(password)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", sec.DefaultHashCost, "bcrypt cost factor")
	cmd.Flags().BoolVar(&force, "force", false, "hash even if the password is weak")

	return cmd
}

// NewVerifyCmd creates the verify subcommand.
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <password> <digest>",
		Short: "Check a password against a bcrypt digest",
		Long:  `Exit with status 0 when the password matches the digest and 1 otherwise.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sec.NewPasswordHasher(sec.DefaultHashCost).Verify(args[0], args[1]) {
				return errMismatch
			}
			fmt.Fprintln(cmd.OutOrStdout(), "match")
			return nil
		},
	}
}

// NewCheckPasswordCmd creates the check-password subcommand.
func NewCheckPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-password <password>",
		Short: "Report which strength rules a password fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			violations := validate.PasswordViolations(args[0])
			if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}

			printViolations(cmd, violations)
			return errWeakPassword
		},
	}
}

func printViolations(cmd *cobra.Command, violations []string) {
	cmd.PrintErrln("password rejected:")
	cmd.PrintErrln("  - " + strings.Join(violations, "\n  - "))
}
