// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-certpin/pkg/anchors"
	"github.com/jeremyhahn/go-certpin/pkg/config"
	"github.com/jeremyhahn/go-certpin/pkg/interceptor"
	"github.com/jeremyhahn/go-certpin/pkg/pinning"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a URL from a pinned HTTPS server",
	Long: `Fetch an HTTPS URL and write the response body, trusting the server only
if its leaf certificate satisfies the selected pinning policy.

  certificate: the leaf must equal the reference certificate byte for byte
               and pass chain and hostname validation
  public-key:  the SHA-256 hash of the leaf public key must equal the
               reference hash

A rejected handshake sends no request. Flags override values from --config.`,
	RunE: runFetch,
}

func init() {
	addFetchFlags(fetchCmd)
}

// addFetchFlags registers the fetch flags on cmd.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "HTTPS URL to fetch (required)")
	cmd.Flags().String("policy", "", "pinning policy: certificate or public-key")
	cmd.Flags().String("cert-file", "", "DER reference certificate")
	cmd.Flags().String("key-hash", "", "base64 reference public-key hash")
	cmd.Flags().String("roots", "", "PEM bundle of trusted roots (default: system roots)")
	cmd.Flags().Bool("verify-chain-for-key-pins", false, "also require chain and hostname validation under the public-key policy")
	cmd.Flags().Duration("timeout", 0, "request timeout (default from config)")
	cmd.Flags().Float64("rate-limit", 0, "maximum requests per second (0: unlimited)")
	cmd.Flags().Int("burst", 0, "rate limiter burst size (default 1)")
}

// runFetch resolves configuration, builds the pinned client, and writes the
// fetched body to the output.
func runFetch(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		return fmt.Errorf("%w: --url is required", ErrInvalidInput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFetchFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	logger := slog.Default()

	storeCfg := cfg.StoreConfig()
	storeCfg.Logger = logger
	store, err := anchors.NewStore(storeCfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	ref, err := store.Anchors()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	roots, err := loadRoots(cfg.Evaluator.Roots)
	if err != nil {
		return err
	}

	evaluator := pinning.NewEvaluator(&pinning.EvaluatorConfig{
		Roots:                 roots,
		VerifyChainForKeyPins: cfg.Evaluator.VerifyChainForKeyPins,
		Logger:                logger,
	})

	icpt, err := interceptor.New(&interceptor.Config{
		Evaluator: evaluator,
		Anchors:   ref,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	client, err := interceptor.NewClient(&interceptor.ClientConfig{
		Interceptor:    icpt,
		ConnectTimeout: cfg.Client.Timeout,
		RateLimit:      cfg.Client.RateLimit,
		Burst:          cfg.Client.Burst,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("fetching", "url", url, "policy", policy)

	body, err := client.Fetch(ctx, url, policy)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	slog.Info("fetch succeeded", "bytes", len(body))
	return writeOutput(body)
}

// applyFetchFlags copies explicitly set flags over the loaded configuration.
func applyFetchFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Client.Policy, _ = flags.GetString("policy")
	}
	if flags.Changed("cert-file") {
		cfg.Anchors.Certificate, _ = flags.GetString("cert-file")
	}
	if flags.Changed("key-hash") {
		cfg.Anchors.PublicKeyHash, _ = flags.GetString("key-hash")
	}
	if flags.Changed("roots") {
		cfg.Evaluator.Roots, _ = flags.GetString("roots")
	}
	if flags.Changed("verify-chain-for-key-pins") {
		cfg.Evaluator.VerifyChainForKeyPins, _ = flags.GetBool("verify-chain-for-key-pins")
	}
	if flags.Changed("timeout") {
		cfg.Client.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("rate-limit") {
		cfg.Client.RateLimit, _ = flags.GetFloat64("rate-limit")
	}
	if flags.Changed("burst") {
		cfg.Client.Burst, _ = flags.GetInt("burst")
	}
}
