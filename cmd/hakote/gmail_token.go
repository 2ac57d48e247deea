package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/Hakote/Hakote/internal/config"
	"github.com/Hakote/Hakote/internal/mailer"
)

func init() {
	var redirectURL string

	tokenCmd := &cobra.Command{
		Use:   "gmail-token",
		Short: "Obtain a Gmail refresh token for the gmail mail provider",
		Long: `Walks through the OAuth2 consent flow for the send-only Gmail scope.

Reads GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET, prints the consent URL, asks
for the authorization code and prints the refresh token to configure as
GMAIL_REFRESH_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.Mail.ClientID == "" || cfg.Mail.ClientSecret == "" {
				return fmt.Errorf("please set GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET")
			}

			oauthCfg := mailer.GmailOAuthConfig(cfg.Mail.ClientID, cfg.Mail.ClientSecret, redirectURL)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Go to the following link in your browser: %v\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
			fmt.Fprint(out, "\nEnter the authorization code: ")

			var code string
			if _, err := fmt.Fscan(cmd.InOrStdin(), &code); err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}

			tok, err := oauthCfg.Exchange(cmd.Context(), code)
			if err != nil {
				return fmt.Errorf("unable to retrieve token: %w", err)
			}

			fmt.Fprintf(out, "\nexport GMAIL_REFRESH_TOKEN=%q\n", tok.RefreshToken)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&redirectURL, "redirect-url", "http://localhost:8080/callback", "OAuth2 redirect URL registered for the client")
	rootCmd.AddCommand(tokenCmd)
}
