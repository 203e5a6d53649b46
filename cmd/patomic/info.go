package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"

	"github.com/llxisdsh/patomic"
	"github.com/llxisdsh/patomic/internal/opt"
)

type report struct {
	GOARCH            string   `json:"goarch"`
	GOOS              string   `json:"goos"`
	Features          []string `json:"features"`
	LockFree64        bool     `json:"lock_free_64"`
	LockFree128       bool     `json:"lock_free_128"`
	AlwaysLockFree64  bool     `json:"always_lock_free_64"`
	AlwaysLockFree128 bool     `json:"always_lock_free_128"`
	LockStripes       int      `json:"lock_stripes"`
	CacheLineSize     int      `json:"cache_line_size"`
	CPUModel          string   `json:"cpu_model,omitempty"`
	OSFlags           []string `json:"os_flags,omitempty"`
}

// osFlags are the feature names, as the OS spells them, that matter to the
// dispatch gate: cx16/avx from x86 cpuinfo, atomics/uscat from arm64.
var osFlags = []string{"cx16", "avx", "atomics", "uscat"}

func currentReport(ctx context.Context) report {
	r := report{
		GOARCH:            runtime.GOARCH,
		GOOS:              runtime.GOOS,
		Features:          patomic.Features(),
		LockFree64:        patomic.IsLockFree64(),
		LockFree128:       patomic.IsLockFree128(),
		AlwaysLockFree64:  patomic.IsAlwaysLockFree64,
		AlwaysLockFree128: patomic.IsAlwaysLockFree128,
		LockStripes:       patomic.LockStripes,
		CacheLineSize:     int(opt.CacheLineSize_),
	}
	// The OS view is informational only; it is missing on some systems.
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		r.CPUModel = infos[0].ModelName
		for _, f := range osFlags {
			if slices.Contains(infos[0].Flags, f) {
				r.OSFlags = append(r.OSFlags, f)
			}
		}
	}
	return r
}

func newInfoCmd() *cobra.Command {
	var asJSON bool

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print detected atomic capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := currentReport(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(r); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
				return nil
			}

			features := "none"
			if len(r.Features) > 0 {
				features = strings.Join(r.Features, " ")
			}
			fmt.Fprintf(out, "target:        %s/%s\n", r.GOOS, r.GOARCH)
			if r.CPUModel != "" {
				fmt.Fprintf(out, "cpu:           %s\n", r.CPUModel)
			}
			fmt.Fprintf(out, "features:      %s\n", features)
			if len(r.OSFlags) > 0 {
				fmt.Fprintf(out, "os flags:      %s\n", strings.Join(r.OSFlags, " "))
			}
			fmt.Fprintf(out, "64-bit:        %s\n", describe(r.LockFree64, r.AlwaysLockFree64))
			fmt.Fprintf(out, "128-bit:       %s\n", describe(r.LockFree128, r.AlwaysLockFree128))
			fmt.Fprintf(out, "lock stripes:  %d\n", r.LockStripes)
			fmt.Fprintf(out, "cache line:    %d bytes\n", r.CacheLineSize)
			return nil
		},
	}
	infoCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return infoCmd
}

func describe(lockFree, always bool) string {
	switch {
	case always:
		return "lock-free (guaranteed by build target)"
	case lockFree:
		return "lock-free (detected at run time)"
	}
	return "seqlock fallback"
}
