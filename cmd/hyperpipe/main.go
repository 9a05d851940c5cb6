// File: cmd/hyperpipe/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Diagnostic CLI for the hyperpipe packet pipeline: inspect detected
// CPU capabilities, replay a synthetic traffic profile through the
// burst tracker, and run a submit/wait/release throughput loop through
// the full facade boundary.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/hyperpipe/api"
	"github.com/momentics/hyperpipe/burst"
	"github.com/momentics/hyperpipe/cpucap"
	"github.com/momentics/hyperpipe/facade"
	"github.com/momentics/hyperpipe/pipeline"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	root := &cobra.Command{
		Use:   "hyperpipe",
		Short: "Packet-acceleration pipeline diagnostics",
	}
	root.AddCommand(capsCmd(), burstCmd(), benchCmd())
	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func capsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caps",
		Short: "Print detected hardware capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cpucap.Detect()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "flags\t0x%x\n", uint32(f))
			fmt.Fprintf(w, "vector\t%v\n", f.HasVector())
			fmt.Fprintf(w, "aes\t%v\n", f.HasAES())
			fmt.Fprintf(w, "pmull\t%v\n", f.HasPMULL())
			fmt.Fprintf(w, "sha1\t%v\n", f.HasSHA1())
			fmt.Fprintf(w, "sha2\t%v\n", f.HasSHA2())
			return w.Flush()
		},
	}
}

func burstCmd() *cobra.Command {
	var (
		rate    float64
		windows int
	)
	cmd := &cobra.Command{
		Use:   "burst",
		Short: "Replay a constant synthetic rate through the burst tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rate < 0 || windows <= 0 {
				return fmt.Errorf("rate must be >= 0 and windows > 0")
			}
			const stepNs = 2 * burst.WindowNs
			bytesPerStep := uint64(rate * float64(stepNs) / 1e9)

			tr := burst.NewTracker(0)
			for k := 1; k <= windows; k++ {
				tr.Update(bytesPerStep, uint64(k)*stepNs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rate=%.0fB/s windows=%d ewma=%.0fB/s level=%s\n",
				rate, windows, tr.Rate(), tr.Level())
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 25e6, "input rate in bytes/sec")
	cmd.Flags().IntVar(&windows, "windows", 100, "number of 10ms windows to replay")
	return cmd
}

func benchCmd() *cobra.Command {
	var (
		packets   int
		size      int
		workers   int
		noPin     bool
		spin      bool
		timeoutMs int64
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Push packets through submit/wait/release and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			if packets <= 0 || size <= 0 {
				return fmt.Errorf("packets and size must be positive")
			}
			cfg := api.DefaultConfig()
			cfg.WorkerCount = workers

			var opts []pipeline.Option
			if noPin {
				opts = append(opts, pipeline.WithoutPinning())
			}
			if spin {
				opts = append(opts, pipeline.WithWaitPolicy(pipeline.WaitSpin))
			}
			b, err := facade.New(cfg, opts...)
			if err != nil {
				return err
			}
			defer b.Close()

			logger.Info("bench starting",
				"packets", packets, "size", size,
				"caps", fmt.Sprintf("0x%x", b.CpuCaps()))

			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i)
			}

			start := time.Now()
			var done, dropped int
			for i := 0; i < packets; i++ {
				ts := api.NowNanos()
				b.UpdateBurst(uint64(size), ts)
				slotH := b.RingWrite(payload, ts, 0, 0)
				if slotH == 0 {
					dropped++
					continue
				}
				jobH := b.SubmitCrypto(slotH, size)
				if jobH == 0 {
					b.ReleaseSlot(slotH)
					dropped++
					continue
				}
				if n := b.WaitCrypto(jobH, timeoutMs); n >= 0 {
					done++
				}
				b.FreeCryptoJob(jobH)
			}
			elapsed := time.Since(start)

			b.PublishMetrics()
			rate := float64(done*size) / elapsed.Seconds()
			fmt.Fprintf(cmd.OutOrStdout(),
				"completed=%d dropped=%d elapsed=%s throughput=%.1fMB/s level=%s\n",
				done, dropped, elapsed.Round(time.Millisecond), rate/1e6,
				api.BurstLevel(b.BurstLevel()))
			return nil
		},
	}
	cmd.Flags().IntVar(&packets, "packets", 100000, "number of packets to push")
	cmd.Flags().IntVar(&size, "size", 1400, "payload size in bytes")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = 2x logical CPUs)")
	cmd.Flags().BoolVar(&noPin, "no-pin", false, "disable worker CPU pinning")
	cmd.Flags().BoolVar(&spin, "spin", false, "busy-poll in wait instead of yielding")
	cmd.Flags().Int64Var(&timeoutMs, "timeout-ms", 1000, "per-job wait timeout")
	return cmd
}
