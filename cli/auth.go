// ABOUTME: Login-activity CLI commands
// ABOUTME: Lists recent sessions, ends a session, and manages the saved API token
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/dealdesk/auth"
	"golang.org/x/oauth2"
)

// AuthActivityCommand lists recent login sessions.
func AuthActivityCommand(ctx context.Context, w io.Writer, client *auth.Client, defaultLimit int, args []string) error {
	fs := flag.NewFlagSet("auth activity", flag.ContinueOnError)
	limit := fs.Int("limit", defaultLimit, "Maximum sessions to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sessions, err := client.LoginActivity(ctx, *limit)
	if err != nil {
		return fmt.Errorf("failed to fetch login activity: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No login activity")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SESSION\tDEVICE\tIP\tLOGIN\tACTIVE")
	_, _ = fmt.Fprintln(tw, "-------\t------\t--\t-----\t------")
	for _, s := range sessions {
		login := s.LoginAt
		if t, err := time.Parse(time.RFC3339, s.LoginAt); err == nil {
			login = humanize.Time(t)
		}
		active := ""
		if s.IsActive {
			active = "●"
		}
		device := fmt.Sprintf("%s on %s (%s)", s.DeviceInfo.Browser, s.DeviceInfo.OS, s.DeviceInfo.Device)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.SessionID, device, s.IPAddress, login, active)
	}
	return tw.Flush()
}

// AuthLogoutCommand ends a session by id.
func AuthLogoutCommand(ctx context.Context, w io.Writer, client *auth.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: auth logout <session-id>")
	}
	if err := client.LogoutSession(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	fmt.Fprintf(w, "✓ Session %s ended\n", args[0])
	return nil
}

// AuthLoginCommand prompts for an API token and saves it to tokenPath.
func AuthLoginCommand(w io.Writer, in *os.File, tokenPath string, _ []string) error {
	token, err := auth.PromptToken(in, w)
	if err != nil {
		return err
	}
	if err := auth.SaveToken(tokenPath, &oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Token saved to %s\n", tokenPath)
	return nil
}

// AuthForgetCommand deletes the saved token.
func AuthForgetCommand(w io.Writer, tokenPath string, _ []string) error {
	if err := auth.DeleteToken(tokenPath); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ Saved token removed")
	return nil
}
