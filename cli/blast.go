package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/statserve/statserve/core/pools"
)

var blastCmd = &cobra.Command{
	Use:   "blast",
	Short: "Fire concurrent requests at a running server",
	Long: `Issue a burst of concurrent GET requests against a statserve instance,
reading /stats before and after to verify the counter and report observed
throughput and latency percentiles.

Examples:
  statserve blast --url http://127.0.0.1:8080 --requests 1000 --concurrency 50
  statserve blast --path /echo/hello --requests 5000`,
	Run: func(cmd *cobra.Command, args []string) {
		runBlast(cmd)
	},
}

// statsSchema pins the shape of the /stats payload the driver depends on.
const statsSchema = `{
	"type": "object",
	"required": ["total_requests", "uptime_seconds", "requests_per_second"],
	"properties": {
		"total_requests": {"type": "integer", "minimum": 0},
		"uptime_seconds": {"type": "number", "minimum": 0},
		"requests_per_second": {"type": "number", "minimum": 0}
	}
}`

func runBlast(cmd *cobra.Command) {
	baseURL, _ := cmd.Flags().GetString("url")
	path, _ := cmd.Flags().GetString("path")
	total, _ := cmd.Flags().GetInt("requests")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	noColor, _ := cmd.Flags().GetBool("no-color")

	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if total <= 0 || concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --requests and --concurrency must be positive")
		os.Exit(1)
	}

	schema, err := jsonschema.CompileString("stats.json", statsSchema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling stats schema: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency,
			MaxIdleConnsPerHost: concurrency,
		},
	}

	before, err := readStats(client, baseURL, schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading /stats before run: %v\n", err)
		os.Exit(1)
	}

	heading := color.New(color.FgCyan, color.Bold)
	heading.Printf("Blasting %s%s: %d requests, concurrency %d\n", baseURL, path, total, concurrency)

	result := fire(client, baseURL+path, total, concurrency)

	after, err := readStats(client, baseURL, schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading /stats after run: %v\n", err)
		os.Exit(1)
	}

	report(result, before, after, total)

	if result.failed.Load() > 0 {
		os.Exit(1)
	}
}

type blastResult struct {
	succeeded atomic.Uint64
	failed    atomic.Uint64

	histMu  sync.Mutex
	hist    *hdrhistogram.Histogram
	elapsed time.Duration
}

// fire pushes the request tasks through a worker pool sized to the wanted
// concurrency; each worker goroutine is one virtual user.
func fire(client *http.Client, target string, total, concurrency int) *blastResult {
	result := &blastResult{
		// 1µs to 1 minute, three significant figures.
		hist: hdrhistogram.New(1, 60_000_000, 3),
	}

	pool := pools.NewWorkerPool(concurrency)

	var wg sync.WaitGroup
	wg.Add(total)
	start := time.Now()

	for i := 0; i < total; i++ {
		pool.Submit(func() {
			defer wg.Done()

			reqStart := time.Now()
			resp, err := client.Get(target)
			if err != nil {
				result.failed.Add(1)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if resp.StatusCode >= 400 {
				result.failed.Add(1)
				return
			}

			result.succeeded.Add(1)
			micros := time.Since(reqStart).Microseconds()
			result.histMu.Lock()
			result.hist.RecordValue(micros)
			result.histMu.Unlock()
		})
	}

	wg.Wait()
	result.elapsed = time.Since(start)
	pool.Close()

	return result
}

func readStats(client *http.Client, baseURL string, schema *jsonschema.Schema) (gjson.Result, error) {
	resp, err := client.Get(baseURL + "/stats")
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != 200 {
		return gjson.Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return gjson.Result{}, fmt.Errorf("stats body is not JSON: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return gjson.Result{}, fmt.Errorf("stats payload failed validation: %w", err)
	}

	return gjson.ParseBytes(body), nil
}

func report(result *blastResult, before, after gjson.Result, total int) {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	label := color.New(color.FgYellow)

	succeeded := result.succeeded.Load()
	failed := result.failed.Load()

	fmt.Println()
	label.Print("Requests:   ")
	if failed == 0 {
		ok.Printf("%d/%d succeeded\n", succeeded, total)
	} else {
		bad.Printf("%d succeeded, %d failed\n", succeeded, failed)
	}

	label.Print("Duration:   ")
	fmt.Printf("%.2fs (%.1f req/s observed)\n",
		result.elapsed.Seconds(), float64(total)/result.elapsed.Seconds())

	counterBefore := before.Get("total_requests").Uint()
	counterAfter := after.Get("total_requests").Uint()
	delta := counterAfter - counterBefore

	label.Print("Counter:    ")
	// The initial /stats read is itself counted by the time the second
	// read happens, so a clean run shows exactly total+1.
	expected := uint64(total) + 1
	if delta == expected {
		ok.Printf("%d -> %d (delta %d, as expected)\n", counterBefore, counterAfter, delta)
	} else {
		bad.Printf("%d -> %d (delta %d, expected %d)\n", counterBefore, counterAfter, delta, expected)
	}

	label.Print("Server rps: ")
	fmt.Printf("%.1f\n", after.Get("requests_per_second").Float())

	result.histMu.Lock()
	defer result.histMu.Unlock()
	if result.hist.TotalCount() > 0 {
		label.Println("Latency:")
		fmt.Printf("  p50 %s  p90 %s  p99 %s  max %s\n",
			formatMicros(result.hist.ValueAtQuantile(50)),
			formatMicros(result.hist.ValueAtQuantile(90)),
			formatMicros(result.hist.ValueAtQuantile(99)),
			formatMicros(result.hist.Max()))
	}
}

func formatMicros(v int64) string {
	return time.Duration(v * int64(time.Microsecond)).String()
}

func init() {
	blastCmd.Flags().String("url", "http://127.0.0.1:8080", "base URL of the target server")
	blastCmd.Flags().String("path", "/", "request path to blast")
	blastCmd.Flags().Int("requests", 1000, "total number of requests")
	blastCmd.Flags().Int("concurrency", 50, "concurrent workers")
	blastCmd.Flags().Duration("timeout", 10*time.Second, "per-request timeout")
	blastCmd.Flags().Bool("no-color", false, "disable colored output")
}
