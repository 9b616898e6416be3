// Probe command: availability check for the external CEP service.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/odontoware/dentops/internal/probe"
)

var (
	flagProbeTimeout time.Duration
	flagProbeRate    float64
)

// defaultProbeCEPs are well-known addresses used when no CEP is given:
// Avenida Paulista and the clinic's own neighborhood.
var defaultProbeCEPs = []string{"01310-100", "80010-000"}

var probeCmd = &cobra.Command{
	Use:   "probe [cep...]",
	Short: "Probe the external CEP lookup service",
	Long: `Probe issues lookups against the configured CEP service and
reports status, latency, and the resolved address. With no arguments it
probes a couple of well-known CEPs. Exits nonzero if any lookup fails.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&flagProbeTimeout, "timeout", probe.DefaultTimeout, "per-request timeout")
	probeCmd.Flags().Float64Var(&flagProbeRate, "rate", float64(probe.DefaultRate), "max requests per second")
}

func runProbe(cmd *cobra.Command, args []string) error {
	// A zero-rate limiter never refills; the second lookup would block
	// until the context is cancelled.
	if flagProbeRate <= 0 {
		return fmt.Errorf("--rate must be positive, got %v", flagProbeRate)
	}

	ceps := args
	if len(ceps) == 0 {
		ceps = defaultProbeCEPs
	}

	p := probe.New(cfg.ProbeBaseURL)
	p.Client.Timeout = flagProbeTimeout
	p.Limiter = rate.NewLimiter(rate.Limit(flagProbeRate), 1)

	results := p.LookupAll(cmd.Context(), ceps)
	if flagJSON {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				fmt.Printf("%s %s %4dms  %s, %s - %s\n",
					okMark("✓"), r.CEP, r.Latency.Milliseconds(), r.Street, r.City, r.State)
			} else {
				fmt.Printf("%s %s  %s\n", failMark("✗"), r.CEP, r.Error)
			}
		}
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d probes failed", failed, len(results))
	}
	return nil
}
