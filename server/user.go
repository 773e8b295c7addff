package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/devilmonastery/fractal/internal/config"
	"github.com/devilmonastery/fractal/internal/domain/entities"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User directory commands",
		Long:  "Commands for preparing entries of the auth.users list in the server config",
	}

	cmd.AddCommand(newUserHashPasswordCommand())
	cmd.AddCommand(newUserEntryCommand())

	return cmd
}

func newUserHashPasswordCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for the server config",
		Long:  "Print the bcrypt hash of a password, for use as password_hash in auth.users",
		Example: `  # Prompt for the password
  server user hash-password

  # Read it from a pipe
  echo -n secret | server user hash-password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			hash, err := entities.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password to hash (prompted for when omitted)")

	return cmd
}

func newUserEntryCommand() *cobra.Command {
	var (
		email     string
		password  string
		superuser bool
		inactive  bool
	)

	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Print a ready-to-paste auth.users entry",
		Example: `  server user entry --email admin@example.com --superuser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			hash, err := entities.HashPassword(password)
			if err != nil {
				return err
			}

			entry := config.UserConfig{
				Email:        email,
				PasswordHash: hash,
				Superuser:    superuser,
			}
			if inactive {
				active := false
				entry.Active = &active
			}

			out, err := yaml.Marshal([]config.UserConfig{entry})
			if err != nil {
				return fmt.Errorf("failed to encode entry: %w", err)
			}
			cmd.OutOrStdout().Write(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().StringVar(&password, "password", "", "User password (prompted for when omitted)")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "Grant superuser rights")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the entry disabled")
	cmd.MarkFlagRequired("email")

	return cmd
}

// readPassword prompts without echo on a terminal and reads one line otherwise
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
