// Command mmapbench runs reader and writer jobs against a file through
// mapped I/O and prints a JSON summary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/mmapio"
	"github.com/hupe1980/mmapio/internal/latlog"
	"github.com/hupe1980/mmapio/internal/randutil"
	"github.com/hupe1980/mmapio/internal/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type config struct {
	path        string
	size        int64
	offset      int64
	blockSize   int64
	readJobs    int
	writeJobs   int
	runtime     time.Duration
	ios         int64
	random      bool
	share       bool
	replicate   bool
	hugePages   int
	direct      bool
	fadvise     bool
	verify      bool
	fsyncBlocks int
	budget      int64
	memLimit    int64
	rate        int64
	seed        int64
	latLog      string
	latCompress latlog.Compression
	metricsAddr string
	logLevel    slog.Level
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fset := flag.NewFlagSet("mmapbench", flag.ContinueOnError)
	fset.SetOutput(stderr)

	var (
		cfg                                   config
		size, offset, bs, budget, limit, rate string
		compress, level                       string
	)
	fset.StringVar(&cfg.path, "file", "", "target file or block device (default: a temporary file)")
	fset.StringVar(&size, "size", "64MiB", "I/O range size")
	fset.StringVar(&offset, "offset", "0", "I/O range start offset")
	fset.StringVar(&bs, "bs", "4KiB", "block size")
	fset.IntVar(&cfg.readJobs, "readjobs", 1, "reader threads")
	fset.IntVar(&cfg.writeJobs, "writejobs", 1, "writer threads")
	fset.DurationVar(&cfg.runtime, "runtime", 5*time.Second, "run time")
	fset.Int64Var(&cfg.ios, "ios", 0, "requests per thread (0: until runtime)")
	fset.BoolVar(&cfg.random, "random", true, "random offsets instead of sequential")
	fset.BoolVar(&cfg.share, "share", false, "share one mapping per job")
	fset.BoolVar(&cfg.replicate, "repl", false, "request NUMA page replication")
	fset.IntVar(&cfg.hugePages, "thp", 0, "transparent huge page level")
	fset.BoolVar(&cfg.direct, "direct", false, "emulate direct I/O")
	fset.BoolVar(&cfg.fadvise, "fadvise", true, "apply access pattern hints")
	fset.BoolVar(&cfg.verify, "verify", false, "writers map read-write for verification")
	fset.IntVar(&cfg.fsyncBlocks, "fsync", 0, "sync every N writes")
	fset.StringVar(&budget, "budget", "1GiB", "global mapping budget")
	fset.StringVar(&limit, "mem-limit", "0", "hard limit on mapped bytes (0: none)")
	fset.StringVar(&rate, "rate", "0", "I/O rate limit per second (0: none)")
	fset.Int64Var(&cfg.seed, "seed", 42, "offset RNG seed")
	fset.StringVar(&cfg.latLog, "lat-log", "", "latency log path")
	fset.StringVar(&compress, "lat-log-compress", "zstd", "latency log compression: zstd, lz4 or none")
	fset.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fset.StringVar(&level, "log-level", "warn", "log level")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	var err error
	for _, v := range []struct {
		s   string
		dst *int64
	}{
		{size, &cfg.size},
		{offset, &cfg.offset},
		{bs, &cfg.blockSize},
		{budget, &cfg.budget},
		{limit, &cfg.memLimit},
		{rate, &cfg.rate},
	} {
		if *v.dst, err = parseBytes(v.s); err != nil {
			return nil, err
		}
	}
	if cfg.latCompress, err = latlog.ParseCompression(compress); err != nil {
		return nil, err
	}
	if err := cfg.logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	if cfg.blockSize <= 0 || cfg.size < cfg.blockSize {
		return nil, fmt.Errorf("size %s smaller than block size %s",
			humanize.IBytes(uint64(cfg.size)), humanize.IBytes(uint64(cfg.blockSize)))
	}
	return &cfg, nil
}

func parseBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config, stdout io.Writer) error {
	if cfg.path == "" {
		dir, err := os.MkdirTemp("", "mmapbench-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		cfg.path = filepath.Join(dir, "data")
	}
	if err := preallocate(cfg.path, cfg.offset+cfg.size); err != nil {
		return err
	}

	basic := &mmapio.BasicMetricsCollector{}
	collectors := multiCollector{basic}
	if cfg.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collectors = append(collectors, NewPrometheusCollector(reg))
		srv := &http.Server{
			Addr:              cfg.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server error: %v", err)
			}
		}()
		defer srv.Close()
	}

	p := mmapio.NewProcess(
		mmapio.WithShare(cfg.share),
		mmapio.WithReplicate(cfg.replicate),
		mmapio.WithHugePages(cfg.hugePages),
		mmapio.WithGlobalBudget(cfg.budget),
		mmapio.WithMappedMemoryLimit(cfg.memLimit),
		mmapio.WithLogLevel(cfg.logLevel),
		mmapio.WithMetricsCollector(collectors),
	)
	limiter := resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.rate})

	if cfg.runtime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.runtime)
		defer cancel()
	}

	jobs := []struct {
		threads int
		job     mmapio.JobConfig
	}{
		{cfg.readJobs, cfg.jobConfig("read", mmapio.ModeRead)},
		{cfg.writeJobs, cfg.jobConfig("write", mmapio.ModeWrite)},
	}

	// Every engine is created before any worker starts, so a bad job
	// configuration returns without goroutines left running.
	var (
		results []*jobResult
		workers []*worker
	)
	for _, j := range jobs {
		if j.threads <= 0 {
			continue
		}
		res := &jobResult{name: j.job.Name}
		results = append(results, res)

		for i := range j.threads {
			engine, err := p.NewEngine(j.job, &res.errs)
			if err != nil {
				return fmt.Errorf("job %s: %w", j.job.Name, err)
			}
			workers = append(workers, &worker{
				cfg:     cfg,
				job:     j.job,
				engine:  engine,
				result:  res,
				rng:     randutil.NewRNG(cfg.seed + int64(i)),
				limiter: limiter,
			})
		}
	}

	var latLog *latlog.Writer
	if cfg.latLog != "" {
		out, err := os.Create(cfg.latLog + cfg.latCompress.Ext())
		if err != nil {
			return err
		}
		defer out.Close()
		if latLog, err = latlog.NewWriter(out, cfg.latCompress); err != nil {
			return err
		}
		for _, w := range workers {
			w.latLog = latLog
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error { return w.run(gctx) })
	}
	err := g.Wait()
	elapsed := time.Since(start)

	var latEntries int64
	if latLog != nil {
		err = errors.Join(err, latLog.Close())
		latEntries = latLog.Count()
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(newSummary(cfg, p, results, basic.GetStats(), latEntries, elapsed))
}

func (c *config) jobConfig(name string, mode mmapio.Mode) mmapio.JobConfig {
	return mmapio.JobConfig{
		Name:         name,
		NrFiles:      1,
		Mode:         mode,
		Verify:       c.verify,
		Random:       c.random,
		Fadvise:      c.fadvise,
		Direct:       c.direct,
		MinBlockSize: c.blockSize,
		FsyncBlocks:  c.fsyncBlocks,
	}
}

// preallocate extends regular files to size. Block devices are left alone.
func preallocate(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() || info.Size() >= size {
		return nil
	}
	return f.Truncate(size)
}
