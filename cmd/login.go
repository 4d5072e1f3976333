package cmd

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/pomyannik/pomyannik/pkg/clierr"
	"github.com/pomyannik/pomyannik/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd signs in with a username (or email) and password and stores the token pair.
func loginCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your account",
		Long:  "Log in with your username or email and password. The tokens are stored locally for later commands.",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			if username == "" {
				var err error
				if username, err = p.input("Username or email: "); err != nil {
					return err
				}
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			return runLogin(cmd, a, username, password)
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username or email (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, a *app, username, password string) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	if _, err := a.session.Login(cmd.Context(), username, password); err != nil {
		return err
	}
	cmd.Println("Login was successful.")
	return nil
}

// logoutCmd removes the stored credential. It never contacts the server.
func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			if err := a.folders.Invalidate(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("Failed to clear the folder cache")
			}
			cmd.Println("Logged out.")
			return nil
		}),
	}
}

// whoamiCmd shows the profile of the logged-in user.
func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			u, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("ID: %d\n", u.ID)
			if u.Username != "" {
				cmd.Printf("Username: %s\n", u.Username)
			}
			cmd.Printf("Email: %s\n", u.Email)
			cmd.Printf("Email confirmed: %t\n", u.IsEmailConfirmed)
			cmd.Printf("Has access: %t\n", u.HasAccess)
			return nil
		}),
	}
}

// prompter reads answers from the command's input. Passwords are read without
// echo when the input is a terminal.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) input(prompt string) (string, error) {
	p.cmd.Print(prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", clierr.New(clierr.Internal, "Failed to read input.", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) password(prompt string) (string, error) {
	f, ok := p.cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.input(prompt)
	}
	p.cmd.Print(prompt)
	password, err := term.ReadPassword(int(f.Fd()))
	p.cmd.Println()
	if err != nil {
		return "", clierr.New(clierr.Internal, "Failed to read password.", err)
	}
	return strings.TrimSpace(string(password)), nil
}

// validateCredentials checks that the username and password are not empty.
func validateCredentials(username, password string) error {
	if err := validation.ValidateNonEmptyString("username", username); err != nil {
		return clierr.New(clierr.Validation, "Username and password cannot be empty.", err)
	}
	if err := validation.ValidateNonEmptyString("password", password); err != nil {
		return clierr.New(clierr.Validation, "Username and password cannot be empty.", err)
	}
	return nil
}
