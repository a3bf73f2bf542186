package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/spf13/cobra"
)

// readSecret takes the first line of r when flagValue is empty
func readSecret(r io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required (--password or stdin)")
	}
	return line, nil
}

func newRegisterCmd(a *app) *cobra.Command {
	var nickname, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = pw
			}
			u, err := a.sync.Register(cmd.Context(), apiclient.RegisterRequest{
				Nickname:        nickname,
				Email:           email,
				Password:        pw,
				ConfirmPassword: confirm,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "signed in as %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("nickname")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			u, err := a.sync.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "signed in as %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached session; cached tasks are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sync.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.errOut, "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cached, err := a.sync.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if cached == nil {
				return a.printer().pairs([][2]string{{"user", "guest"}})
			}

			rows := [][2]string{
				{"email", cached.Email},
				{"nickname", cached.Username},
			}
			remote, err := a.sync.Whoami(cmd.Context())
			if err != nil {
				fmt.Fprintf(a.errOut, "not verified with server: %v\n", err)
			} else {
				rows = append(rows, [2]string{"id", strconv.FormatInt(remote.ID, 10)})
			}
			return a.printer().pairs(rows)
		},
	}
}
