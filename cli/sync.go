// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: SSH-key based sync; link, status, now, auto, and wipe

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/harperreed/dealdesk/charm"
)

// ClientOpener opens the charm client used by sync commands.
type ClientOpener func() (*charm.Client, error)

// SyncLinkCommand links this device to a Charm account. Charm authenticates
// with the device's SSH key, so linking is just a first successful sync.
func SyncLinkCommand(w io.Writer, open ClientOpener, args []string) error {
	fs := flag.NewFlagSet("sync link", flag.ContinueOnError)
	host := fs.String("host", "", "Charm server to link against (saved to config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := open()
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	defer c.Close()

	cfg := c.Config()
	if *host != "" && *host != cfg.Host {
		if err := cfg.SetHost(*host); err != nil {
			return fmt.Errorf("failed to save host: %w", err)
		}
		fmt.Fprintf(w, "Host set to %s; rerun to link against it.\n", *host)
		return nil
	}

	fmt.Fprintf(w, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	fmt.Fprintln(w, "Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if id, err := c.ID(); err != nil {
		fmt.Fprintln(w, "✓ Device linked (ID unavailable)")
	} else {
		fmt.Fprintf(w, "✓ Linked to account: %s\n", id)
	}
	fmt.Fprintf(w, "✓ Auto-sync: %v\n", cfg.AutoSync)
	fmt.Fprintln(w, "\nYour deals now sync with Charm Cloud!")
	return nil
}

// SyncStatusCommand shows current sync configuration and status.
func SyncStatusCommand(w io.Writer, open ClientOpener, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := open()
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	defer c.Close()

	cfg := c.Config()
	fmt.Fprintln(w, "Charm Sync Status")
	fmt.Fprintln(w, "─────────────────")
	fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if c.IsConnected() {
		fmt.Fprintln(w, "Status:    Connected")
	} else {
		fmt.Fprintln(w, "Status:    Not connected")
	}

	if n, err := charm.NewDealRepository(c).CountDeals(context.Background()); err == nil {
		fmt.Fprintf(w, "Deals:     %d\n", n)
	}
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(w io.Writer, open ClientOpener, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := open()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	defer c.Close()

	if *verbose {
		fmt.Fprintln(w, "Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if *verbose {
		fmt.Fprintln(w, "✓ Sync complete")
	} else {
		fmt.Fprintln(w, "✓ Synced")
	}
	return nil
}

// SyncAutoCommand enables or disables auto-sync in the config at cfgPath
// (the default location when empty).
func SyncAutoCommand(w io.Writer, cfgPath string, args []string) error {
	fs := flag.NewFlagSet("sync auto", flag.ContinueOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *enable == *disable {
		fmt.Fprintln(w, "Usage: dealdesk sync auto --enable|--disable")
		return nil
	}

	var (
		cfg *charm.Config
		err error
	)
	if cfgPath == "" {
		cfg, err = charm.LoadConfig()
	} else {
		cfg, err = charm.LoadConfigFrom(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to save auto-sync: %w", err)
	}
	if *enable {
		fmt.Fprintln(w, "✓ Auto-sync enabled")
	} else {
		fmt.Fprintln(w, "✓ Auto-sync disabled")
	}
	return nil
}

// SyncWipeCommand deletes all local KV data. WARNING: destructive.
func SyncWipeCommand(w io.Writer, open ClientOpener, args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		fmt.Fprintln(w, "WARNING: This will delete ALL local deal data!")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To confirm, run:")
		fmt.Fprintln(w, "  dealdesk sync wipe --confirm")
		return nil
	}

	c, err := open()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	defer c.Close()

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Fprintln(w, "✓ All data wiped")
	fmt.Fprintln(w, "Your Charm account is still linked.")
	return nil
}
