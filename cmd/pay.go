package cmd

import (
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// openURL is swapped in tests.
var openURL = browser.OpenURL

// payCmd groups the payment commands.
func payCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Buy access and check payments",
	}

	cmd.AddCommand(payCreateCmd(a), payStatusCmd(a))

	return cmd
}

func payCreateCmd(a *app) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a payment and print its confirmation link",
		Args:  cobra.NoArgs,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			p, err := a.api.CreatePayment(cmd.Context())
			if err != nil {
				return err
			}
			if p.PaymentID != "" {
				cmd.Printf("Payment ID: %s\n", p.PaymentID)
			}
			cmd.Printf("Confirm the payment at: %s\n", p.ConfirmationURL)
			if open && p.ConfirmationURL != "" {
				if err := openURL(p.ConfirmationURL); err != nil {
					log.Warn().Err(err).Msg("Failed to open the browser")
					cmd.PrintErrln("Could not open the browser. Open the link above manually.")
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&open, "open", "o", false, "Open the confirmation link in the browser")

	return cmd
}

func payStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [paymentID]",
		Short: "Show the status of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			st, err := a.api.CheckPaymentStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Payment %s: %s\n", st.PaymentID, st.Status)
			if st.Paid {
				cmd.Println("Access is active.")
			}
			return nil
		}),
	}
}
