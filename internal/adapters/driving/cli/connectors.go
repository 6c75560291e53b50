package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/adapters/driving/oauth"
	"github.com/custodia-labs/briefcast/internal/core/domain"
)

var (
	authorizeNoBrowser bool
	authorizeTimeout   time.Duration
)

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var connectorsCmd = &cobra.Command{
	Use:     "connectors",
	Aliases: []string{"connector"},
	Short:   "Connect and inspect content providers",
}

var connectorsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the connection state of every provider",
	PreRunE: requireServices,
	RunE:    runConnectorsStatus,
}

var connectorsAuthorizeCmd = &cobra.Command{
	Use:   "authorize [provider]",
	Short: "Connect a provider through its consent page",
	Long: `Opens the provider's consent page and waits for the redirect on the
configured callback URL. The callback URL must point at this machine, for
example http://localhost:8080/api/connectors/gmail/callback, and the API
server must not be listening on it at the same time.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireServices,
	RunE:    runConnectorsAuthorize,
}

var connectorsDisconnectCmd = &cobra.Command{
	Use:     "disconnect [provider]",
	Short:   "Forget a provider's credential",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireServices,
	RunE:    runConnectorsDisconnect,
}

func init() {
	connectorsAuthorizeCmd.Flags().BoolVar(&authorizeNoBrowser, "no-browser", false, "print the consent URL instead of opening it")
	connectorsAuthorizeCmd.Flags().DurationVar(&authorizeTimeout, "timeout", 5*time.Minute, "how long to wait for the callback")

	connectorsCmd.AddCommand(connectorsStatusCmd)
	connectorsCmd.AddCommand(connectorsAuthorizeCmd)
	connectorsCmd.AddCommand(connectorsDisconnectCmd)
	rootCmd.AddCommand(connectorsCmd)
}

func runConnectorsStatus(cmd *cobra.Command, _ []string) error {
	if connectorService == nil {
		return fmt.Errorf("connectors: %w", errNotConfigured)
	}

	statuses, err := connectorService.Status(commandContext(cmd), currentUser())
	if err != nil {
		return err
	}

	pal := newPalette(cmd.OutOrStdout())
	cmd.Printf("%-10s %-14s %s\n", "PROVIDER", "STATE", "EXPIRES")
	for _, st := range statuses {
		state := string(st.State)
		switch st.State {
		case domain.ConnectionConnected:
			state = pal.ok.Render(state)
		case domain.ConnectionNeedsReauth:
			state = pal.warn.Render(state)
		case domain.ConnectionNotRequired:
			state = pal.muted.Render(state)
		}
		expires := "-"
		if !st.ExpiresAt.IsZero() {
			expires = st.ExpiresAt.Local().Format("2006-01-02 15:04")
		}
		cmd.Printf("%-10s %-14s %s\n", st.Provider, state, expires)
	}
	return nil
}

func runConnectorsAuthorize(cmd *cobra.Command, args []string) error {
	if connectorService == nil {
		return fmt.Errorf("connectors: %w", errNotConfigured)
	}
	provider, err := domain.ParseProvider(args[0])
	if err != nil {
		return err
	}
	if !provider.RequiresAuth() {
		cmd.Printf("%s needs no authorization.\n", provider)
		return nil
	}

	ctx := commandContext(cmd)
	consentURL, err := connectorService.AuthorizationURL(ctx, currentUser(), provider)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedProvider) {
			return fmt.Errorf("%s has no OAuth client configured: %w", provider, err)
		}
		return err
	}

	redirect, err := redirectFromConsentURL(consentURL)
	if err != nil {
		return err
	}
	server, err := oauth.NewCallbackServer(redirect)
	if err != nil {
		return fmt.Errorf("%w; connect %s through the API server instead", err, provider)
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop() //nolint:errcheck

	if authorizeNoBrowser {
		cmd.Printf("Open this URL to connect %s:\n\n  %s\n\n", provider, consentURL)
	} else {
		cmd.Printf("Opening the %s consent page...\n", provider)
		if err := openBrowser(consentURL); err != nil {
			cmd.Printf("Could not open a browser. Open this URL instead:\n\n  %s\n\n", consentURL)
		}
	}
	cmd.Println("Waiting for authorization...")

	waitCtx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	defer cancel()
	cb, err := server.Wait(waitCtx)
	if err != nil {
		return err
	}

	cred, err := connectorService.Connect(ctx, provider, cb.Code, cb.State)
	if err != nil {
		return err
	}
	cmd.Printf("Connected %s", provider)
	if !cred.ExpiresAt.IsZero() {
		cmd.Printf(" (token valid until %s)", cred.ExpiresAt.Local().Format("15:04"))
	}
	cmd.Println()
	return nil
}

func runConnectorsDisconnect(cmd *cobra.Command, args []string) error {
	if connectorService == nil {
		return fmt.Errorf("connectors: %w", errNotConfigured)
	}
	provider, err := domain.ParseProvider(args[0])
	if err != nil {
		return err
	}
	if err := connectorService.Disconnect(commandContext(cmd), currentUser(), provider); err != nil {
		return err
	}
	cmd.Printf("Disconnected %s\n", provider)
	return nil
}

// redirectFromConsentURL extracts the redirect_uri the provider will call.
func redirectFromConsentURL(consentURL string) (string, error) {
	u, err := url.Parse(consentURL)
	if err != nil {
		return "", fmt.Errorf("parse consent URL: %w", err)
	}
	redirect := u.Query().Get("redirect_uri")
	if redirect == "" {
		return "", errors.New("consent URL has no redirect_uri")
	}
	return redirect, nil
}
