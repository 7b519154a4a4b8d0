package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/oauth"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Loopback ports tried for the browser login callback.
const (
	callbackPortStart = 18765
	callbackPortEnd   = 18865
)

var (
	// openBrowser is replaced in tests.
	openBrowser = oauth.OpenBrowser

	// browserLoginTimeout bounds the wait for the authorization callback.
	browserLoginTimeout = 5 * time.Minute
)

var successColor = color.New(color.FgGreen, color.Bold)

// success prints a highlighted outcome line.
func success(cmd *cobra.Command, msg string) {
	_, _ = successColor.Fprintln(cmd.OutOrStdout(), msg)
}

var (
	loginEmail   string
	loginBrowser bool
	signupEmail  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long: `Sign in with email and password, or with --browser to authorize in a
web browser (OAuth2 providers with an authorization endpoint).

The session is stored locally and reused by every ragdesk command.`,
	Args:        cobra.NoArgs,
	Annotations: routed(domain.RouteSignIn),
	RunE:        runLogin,
}

var signupCmd = &cobra.Command{
	Use:         "signup",
	Short:       "Create an account",
	Args:        cobra.NoArgs,
	Annotations: routed(domain.RouteSignIn),
	RunE:        runSignup,
}

var logoutCmd = &cobra.Command{
	Use:         "logout",
	Short:       "Sign out and forget the stored session",
	Args:        cobra.NoArgs,
	Annotations: withSession(),
	RunE:        runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:         "whoami",
	Short:       "Show the signed-in user",
	Args:        cobra.NoArgs,
	Annotations: withSession(),
	RunE:        runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Email address (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginBrowser, "browser", false, "Sign in through a web browser")
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "Email address (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// readCredentials prompts for whatever was not given as a flag.
func readCredentials(cmd *cobra.Command, email string) (string, string, error) {
	p := newPrompter(cmd)
	if email == "" {
		var err error
		if email, err = p.required("Email: ", "email"); err != nil {
			return "", "", err
		}
	}
	password, err := p.password("Password: ")
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", errors.New("password is required")
	}
	return email, password, nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if sessionHolder == nil {
		return errors.New("session not configured")
	}
	if loginBrowser {
		return runBrowserLogin(cmd)
	}

	email, password, err := readCredentials(cmd, loginEmail)
	if err != nil {
		return err
	}
	if err := sessionHolder.SignIn(commandContext(cmd), email, password); err != nil {
		return err
	}

	success(cmd, "Signed in.")
	return nil
}

func runBrowserLogin(cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	receiver, err := oauth.Listen(callbackPortStart, callbackPortEnd)
	if err != nil {
		return fmt.Errorf("starting callback receiver: %w", err)
	}
	defer func() { _ = receiver.Close() }()

	flow, err := sessionHolder.BeginAuthorization(receiver.RedirectURI())
	if err != nil {
		if errors.Is(err, domain.ErrNotSupported) {
			return errors.New("browser login needs an OAuth2 provider with identity.auth_url set")
		}
		return err
	}
	receiver.Serve(flow.State)

	cmd.Println("Opening your browser to sign in...")
	cmd.Printf("If it does not open, visit:\n  %s\n", flow.AuthURL)
	if err := openBrowser(flow.AuthURL); err != nil {
		cmd.Printf("Could not open a browser: %v\n", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, browserLoginTimeout)
	defer cancel()

	code, err := receiver.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("browser login: %w", err)
	}
	if err := sessionHolder.CompleteAuthorization(ctx, flow, code); err != nil {
		return err
	}

	success(cmd, "Signed in.")
	return nil
}

func runSignup(cmd *cobra.Command, _ []string) error {
	if sessionHolder == nil {
		return errors.New("session not configured")
	}

	email, password, err := readCredentials(cmd, signupEmail)
	if err != nil {
		return err
	}

	result, err := sessionHolder.SignUp(commandContext(cmd), email, password)
	if err != nil {
		if errors.Is(err, domain.ErrNotSupported) {
			return errors.New("this identity provider does not support sign-up; register with it directly")
		}
		return err
	}

	if result.ConfirmationRequired {
		success(cmd, "Check your email to confirm signup.")
		return nil
	}
	success(cmd, "Signed in.")
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if sessionHolder.Current().Status == domain.StatusAbsent {
		cmd.Println("Not signed in.")
		return nil
	}

	if err := sessionHolder.SignOut(commandContext(cmd)); err != nil {
		cmd.Println("Signed out locally.")
		return fmt.Errorf("the identity provider could not revoke the session: %w", err)
	}

	success(cmd, "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	state := sessionHolder.Current()
	switch state.Status {
	case domain.StatusPresent:
		cmd.Println(displayName(state.Principal))
		if state.Principal.ID != "" && state.Principal.Email != "" {
			cmd.Printf("User ID: %s\n", state.Principal.ID)
		}
		return nil
	case domain.StatusAbsent:
		cmd.Println("Not signed in.")
		return nil
	default:
		if sessionInitErr != nil {
			return fmt.Errorf("resolving session: %w", sessionInitErr)
		}
		return errors.New("session is still loading")
	}
}
