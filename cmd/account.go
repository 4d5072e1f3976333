package cmd

import (
	"errors"
	"fmt"

	"github.com/pomyannik/pomyannik/auth"
	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/pkg/clierr"
	"github.com/pomyannik/pomyannik/pkg/validation"
	"github.com/spf13/cobra"
)

// registerCmd creates an account. With --login the new credentials are used to sign in right away.
func registerCmd(a *app) *cobra.Command {
	var username, email string
	var loginAfter bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			if email == "" {
				var err error
				if email, err = p.input("Email: "); err != nil {
					return err
				}
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			confirm, err := p.password("Repeat password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return clierr.New(clierr.Validation, "Passwords do not match.", nil)
			}

			u, err := a.session.Register(cmd.Context(), client.RegisterRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return registrationCLIError(err)
			}
			cmd.Printf("Account created for %s.\n", u.Email)
			if !u.IsEmailConfirmed {
				cmd.Println("Run 'pomyannik email send-code' to confirm your email address.")
			}

			if !loginAfter {
				return nil
			}
			login := username
			if login == "" {
				login = email
			}
			return runLogin(cmd, a, login, password)
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (optional)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address (prompted when omitted)")
	cmd.Flags().BoolVarP(&loginAfter, "login", "l", false, "Log in after the account is created")

	return cmd
}

func registrationCLIError(err error) error {
	var regErr *auth.RegistrationError
	if errors.As(err, &regErr) {
		return clierr.New(clierr.Validation, fmt.Sprintf("%s: %s", regErr.Field, regErr.Message), err)
	}
	return err
}

// emailCmd groups the email confirmation commands.
func emailCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Confirm your email address",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "send-code",
			Short: "Send a confirmation code to your email",
			Args:  cobra.NoArgs,
			RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
				if err := a.api.SendEmailConfirmCode(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("Confirmation code sent. Check your inbox.")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "confirm [code]",
			Short: "Confirm your email with the received code",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
				if err := a.api.ConfirmEmail(cmd.Context(), args[0]); err != nil {
					return err
				}
				cmd.Println("Email confirmed.")
				return nil
			}),
		},
	)

	return cmd
}

// passwordCmd groups the password recovery commands.
func passwordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}

	cmd.AddCommand(forgetPasswordCmd(a), restorePasswordCmd(a))

	return cmd
}

func forgetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forget [email]",
		Short: "Send a password reset code to your email",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			if err := a.authAPI.ForgetPassword(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("If the address is registered, a reset code is on its way.")
			return nil
		}),
	}
}

func restorePasswordCmd(a *app) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Set a new password using a reset code",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("email", email); err != nil {
				return clierr.New(clierr.Validation, "The --email flag is required.", err)
			}
			if err := validation.ValidateNonEmptyString("code", code); err != nil {
				return clierr.New(clierr.Validation, "The --code flag is required.", err)
			}
			password, err := newPrompter(cmd).password("New password: ")
			if err != nil {
				return err
			}
			err = a.authAPI.RestorePassword(cmd.Context(), client.RestorePasswordRequest{
				Email:       email,
				Code:        code,
				NewPassword: password,
			})
			if err != nil {
				return err
			}
			cmd.Println("Password changed. You can now log in with the new password.")
			return nil
		}),
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address of the account")
	cmd.Flags().StringVarP(&code, "code", "c", "", "Reset code from the email")

	return cmd
}
