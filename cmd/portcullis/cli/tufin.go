package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/portcullisgw/portcullis/internal/config"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

func newTufinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tufin",
		Short: "Probe the upstream Tufin appliances",
		Long:  "Check connectivity to SecureTrack using the credentials from the config file, without starting the gateway.",
	}

	cmd.AddCommand(newTufinTestCmd())
	cmd.AddCommand(newTufinDomainsCmd())

	return cmd
}

// upstreamFromConfig loads config and builds the upstream client used by the
// probe commands.
func upstreamFromConfig() (*tufin.HTTPClient, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireTufin(); err != nil {
		return nil, nil, fmt.Errorf("tufin upstream not configured: %w", err)
	}
	return newTufinClient(cfg), cfg, nil
}

// ---------- tufin test ----------

func newTufinTestCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the SecureTrack connection",
		Long:  "Connect to SecureTrack and list domains, verifying URL, credentials, and TLS settings in one round trip.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTufinTest(timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Probe timeout")

	return cmd
}

func runTufinTest(timeout time.Duration) error {
	client, cfg, err := upstreamFromConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Probing %s ... ", cfg.Tufin.SecureTrackURL)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	domains, err := client.ListDomains(ctx)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("securetrack probe: %w", err)
	}

	fmt.Println("ok")
	fmt.Println()
	fmt.Printf("  Domains:   %d\n", len(domains.Domains.Domain))
	fmt.Printf("  Latency:   %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  TLS check: %v\n", cfg.Tufin.VerifyTLS())
	return nil
}

// ---------- tufin domains ----------

func newTufinDomainsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List SecureTrack domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTufinDomains(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runTufinDomains(jsonOutput bool) error {
	client, _, err := upstreamFromConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := client.ListDomains(ctx)
	if err != nil {
		return fmt.Errorf("list domains: %w", err)
	}

	domains := list.Domains.Domain

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(domains)
	}

	if len(domains) == 0 {
		fmt.Println("No domains found.")
		return nil
	}

	fmt.Printf("%-8s %-32s\n", "ID", "NAME")
	fmt.Printf("%-8s %-32s\n", "--", "----")
	for _, d := range domains {
		fmt.Printf("%-8s %-32s\n", d.ID, d.Name)
	}

	return nil
}
