package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/portcullisgw/portcullis/pkg/client"
)

func newBenchmarkCmd() *cobra.Command {
	var (
		serverURL   string
		apiKey      string
		op          string
		deviceID    string
		duration    time.Duration
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Benchmark gateway request throughput",
		Long: `Run a load test against a running gateway to measure request throughput and latency.
Issues concurrent requests for the chosen operation for the given duration. Rejected
requests (rate limited, denied) are counted separately by status code, so the test
doubles as a way to observe the limiter under load.`,
		Example: `  portcullis benchmark --key pcl_... --op devices --duration 30s --concurrency 50
  portcullis benchmark --url http://gateway:8080 --key pcl_... --op secure
  portcullis benchmark --key pcl_... --op device --device-id 42
  portcullis benchmark --key pcl_... --op healthz --concurrency 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(serverURL, apiKey, op, deviceID, duration, concurrency)
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "", "Gateway base URL (default $PORTCULLIS_SERVER_ADDR or http://localhost:8080)")
	cmd.Flags().StringVar(&apiKey, "key", "", "API key to authenticate with (default $PORTCULLIS_API_KEY)")
	cmd.Flags().StringVar(&op, "op", "secure", "Operation to exercise (secure, devices, device, tickets, status, healthz)")
	cmd.Flags().StringVar(&deviceID, "device-id", "", "Device ID for --op device")
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "Number of concurrent workers")

	return cmd
}

// redactKey keeps enough of an API key to recognize it without exposing it.
func redactKey(key string) string {
	if key == "" {
		return "(from environment)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "****"
}

// printBenchBanner prints the ASCII art banner and benchmark configuration.
func printBenchBanner(target, keyLabel, op string, duration time.Duration, concurrency int) {
	fmt.Print(banner)
	fmt.Println("Portcullis Benchmark Suite")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Target: %s (key %s)\n", target, keyLabel)
	fmt.Printf("Operation: %s | Duration: %s | Concurrency: %d\n", op, duration, concurrency)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

// memStats captures a snapshot of memory statistics for reporting.
type memStats struct {
	HeapAlloc uint64
	Sys       uint64
}

func captureMemStats() memStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return memStats{HeapAlloc: m.HeapAlloc, Sys: m.Sys}
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// benchOp resolves the --op flag to a request function that exercises one
// gateway endpoint per call.
func benchOp(gw *client.Client, op, deviceID string) (func(context.Context) error, error) {
	switch op {
	case "secure":
		return func(ctx context.Context) error {
			_, err := gw.Secure(ctx)
			return err
		}, nil
	case "devices":
		return func(ctx context.Context) error {
			_, err := gw.ListDevices(ctx, client.DeviceFilters{})
			return err
		}, nil
	case "device":
		if deviceID == "" {
			return nil, fmt.Errorf("--device-id is required for --op device")
		}
		return func(ctx context.Context) error {
			_, err := gw.GetDevice(ctx, deviceID)
			return err
		}, nil
	case "tickets":
		return func(ctx context.Context) error {
			_, err := gw.ListTickets(ctx, client.ListTicketsOptions{Limit: 10})
			return err
		}, nil
	case "status":
		return func(ctx context.Context) error {
			_, err := gw.TufinStatus(ctx)
			return err
		}, nil
	case "healthz":
		return func(ctx context.Context) error {
			return gw.Healthz(ctx)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operation %q (supported: secure, devices, device, tickets, status, healthz)", op)
	}
}

func runBenchmark(serverURL, apiKey, op, deviceID string, duration time.Duration, concurrency int) error {
	opts := []client.Option{client.WithTimeout(10 * time.Second)}
	if serverURL != "" {
		opts = append(opts, client.WithBaseURL(serverURL))
	}
	if apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	gw := client.New(opts...)

	printBenchBanner(gw.BaseURL(), redactKey(apiKey), op, duration, concurrency)

	request, err := benchOp(gw, op, deviceID)
	if err != nil {
		return err
	}

	memBefore := captureMemStats()
	ctx := context.Background()

	// Probe once before unleashing the workers so a bad URL or key fails fast.
	fmt.Print("Probing... ")
	if err := gw.Healthz(ctx); err != nil {
		return fmt.Errorf("gateway not reachable: %w", err)
	}
	fmt.Println("ok")
	fmt.Println()
	fmt.Println("Running benchmark...")
	fmt.Println()

	var (
		totalRequests atomic.Int64
		totalErrors   atomic.Int64
		latencies     = make([]time.Duration, 0, 100000)
		statusCounts  = make(map[int]int64)
		mu            sync.Mutex
	)

	deadline := time.Now().Add(duration)
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				start := time.Now()
				err := request(ctx)
				elapsed := time.Since(start)

				if err != nil {
					totalErrors.Add(1)
					var apiErr *client.APIError
					if errors.As(err, &apiErr) {
						mu.Lock()
						statusCounts[apiErr.StatusCode]++
						mu.Unlock()
					}
					continue
				}

				totalRequests.Add(1)
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	memAfter := captureMemStats()

	total := totalRequests.Load()
	errCount := totalErrors.Load()
	rps := float64(total) / duration.Seconds()

	fmt.Println("Results")
	fmt.Println("-------")
	fmt.Printf("  Total requests: %d\n", total)
	fmt.Printf("  Errors:         %d\n", errCount)
	fmt.Printf("  RPS:            %.1f\n", rps)

	if len(latencies) > 0 {
		// Sort latencies for percentile calculation using sort.Slice
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})
		fmt.Printf("  Latency p50:    %s\n", latencies[len(latencies)*50/100])
		fmt.Printf("  Latency p95:    %s\n", latencies[len(latencies)*95/100])
		fmt.Printf("  Latency p99:    %s\n", latencies[len(latencies)*99/100])
		fmt.Printf("  Latency max:    %s\n", latencies[len(latencies)-1])
	}

	if len(statusCounts) > 0 {
		codes := make([]int, 0, len(statusCounts))
		for code := range statusCounts {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		fmt.Println()
		fmt.Println("Rejected by Status")
		fmt.Println("------------------")
		for _, code := range codes {
			label := ""
			switch code {
			case 401:
				label = " (unauthorized)"
			case 403:
				label = " (forbidden)"
			case 429:
				label = " (rate limited)"
			case 502:
				label = " (upstream error)"
			}
			fmt.Printf("  %d%s: %d\n", code, label, statusCounts[code])
		}
	}

	fmt.Println()
	fmt.Println("Memory")
	fmt.Println("------")
	fmt.Printf("  Heap before:    %s\n", formatBytes(memBefore.HeapAlloc))
	fmt.Printf("  Heap after:     %s\n", formatBytes(memAfter.HeapAlloc))
	fmt.Printf("  RSS (sys) before: %s\n", formatBytes(memBefore.Sys))
	fmt.Printf("  RSS (sys) after:  %s\n", formatBytes(memAfter.Sys))

	return nil
}
