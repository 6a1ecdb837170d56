package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/mmapio"
)

type jobSummary struct {
	Name         string `json:"name"`
	IOs          int64  `json:"ios"`
	Bytes        int64  `json:"bytes"`
	Bandwidth    string `json:"bandwidth"`
	AvgLatencyUs int64  `json:"avg_latency_us"`
	Maps         int64  `json:"maps"`
	Remaps       int64  `json:"remaps"`
	PartialFiles int64  `json:"partial_files"`
	ReqErrors    int64  `json:"request_errors"`
	Failed       bool   `json:"failed"`
	Error        string `json:"error,omitempty"`
}

type summary struct {
	File           string                   `json:"file"`
	Size           string                   `json:"size"`
	BlockSize      string                   `json:"block_size"`
	WindowSize     string                   `json:"window_size"`
	MemoryLimit    string                   `json:"mapped_memory_limit,omitempty"`
	Elapsed        string                   `json:"elapsed"`
	SharedMappings []string                 `json:"shared_mappings,omitempty"`
	SharedSlots    string                   `json:"shared_slots"`
	LatencyEntries int64                    `json:"latency_log_entries,omitempty"`
	Jobs           []jobSummary             `json:"jobs"`
	Metrics        mmapio.BasicMetricsStats `json:"metrics"`
}

func newSummary(cfg *config, p *mmapio.Process, results []*jobResult, stats mmapio.BasicMetricsStats, latEntries int64, elapsed time.Duration) summary {
	used, capacity := p.SharedSlots()
	s := summary{
		File:           cfg.path,
		Size:           humanize.IBytes(uint64(cfg.size)),
		BlockSize:      humanize.IBytes(uint64(cfg.blockSize)),
		WindowSize:     humanize.IBytes(uint64(p.WindowSize(1))),
		Elapsed:        elapsed.Round(time.Millisecond).String(),
		SharedMappings: p.SharedMappings(),
		SharedSlots:    fmt.Sprintf("%d/%d", used, capacity),
		LatencyEntries: latEntries,
		Metrics:        stats,
	}
	if limit := p.MappedMemoryLimit(); limit > 0 {
		s.MemoryLimit = humanize.IBytes(uint64(limit))
	}

	for _, r := range results {
		js := jobSummary{
			Name:         r.name,
			IOs:          r.ios.Load(),
			Bytes:        r.bytes.Load(),
			Maps:         r.maps.Load(),
			Remaps:       r.remaps.Load(),
			PartialFiles: r.partial.Load(),
			ReqErrors:    r.reqErrors.Load(),
			Failed:       r.errs.Failed(),
		}
		if js.IOs > 0 {
			js.AvgLatencyUs = r.latencyNs.Load() / js.IOs / 1000
		}
		if secs := elapsed.Seconds(); secs > 0 {
			js.Bandwidth = humanize.IBytes(uint64(float64(js.Bytes)/secs)) + "/s"
		}
		if op, err := r.errs.Err(); err != nil {
			js.Error = op + ": " + err.Error()
		}
		s.Jobs = append(s.Jobs, js)
	}
	return s
}
