// Package main provides the entry point for sp6sim, a cycle-accurate
// simulator for the six-stage SP scalar pipeline.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sp6sim/config"
	"sp6sim/loader"
	"sp6sim/memory"
	"sp6sim/pipeline"
	"sp6sim/trace"
)

var (
	cycles     = flag.Uint64("cycles", 0, "Cycle cap (0 = run until halt)")
	traceDir   = flag.String("trace-dir", "", "Directory to write cycle_trace.txt, inst_trace.txt and SRAM dumps (overrides the config file's trace_dir; tracing is off when neither sets one)")
	configPath = flag.String("config", "", "Path to a run configuration JSON file")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: sp6sim [options] <program.img>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	os.Exit(run(flag.Arg(0)))
}

func run(programPath string) int {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading run config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *cycles != 0 {
		cfg.MaxCycles = *cycles
	}
	if *traceDir != "" {
		cfg.TraceDir = *traceDir
	}

	srami := memory.NewSRAM()
	sramd := memory.NewSRAM()
	n, err := loader.Load(programPath, srami, sramd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		return 1
	}
	if *verbose {
		fmt.Printf("Loaded %s: %d words\n", programPath, n)
	}

	cycleOut, instOut, closeTrace, err := openTraceFiles(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace output: %v\n", err)
		return 1
	}
	defer closeTrace()

	var cycleWriter *trace.CycleWriter
	if cycleOut != nil {
		cycleWriter = trace.NewCycleWriter(cycleOut)
	}
	var instWriter *trace.InstWriter
	if instOut != nil {
		instWriter = trace.NewInstWriter(instOut)
	}

	p := pipeline.NewProcessor(srami, sramd)
	p.Run(cfg.MaxCycles, func(snap pipeline.CycleSnapshot, rt pipeline.Retirement) {
		if cycleWriter != nil {
			if err := cycleWriter.Emit(snap); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing cycle trace: %v\n", err)
			}
		}
		if instWriter != nil && rt.Valid {
			if err := instWriter.Emit(rt); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing instruction trace: %v\n", err)
			}
		}
	})

	if instWriter != nil {
		if err := instWriter.Finish(p.HaltPC()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing instruction trace: %v\n", err)
		}
	}

	if cfg.TraceDir != "" {
		if err := dumpMemories(cfg.TraceDir, srami, sramd); err != nil {
			fmt.Fprintf(os.Stderr, "Error dumping memories: %v\n", err)
			return 1
		}
	}

	if *verbose {
		stats := p.Stats()
		fmt.Printf("Halted at pc %04X after %d cycles, %d instructions\n",
			stats.HaltPC, stats.Cycle, stats.InstCount)
	}

	if !p.Halted() {
		fmt.Fprintf(os.Stderr, "Simulation stopped at the %d-cycle cap without halting\n", cfg.MaxCycles)
		return 1
	}

	return 0
}

func openTraceFiles(cfg *config.Config) (cycleOut, instOut *os.File, closeFn func(), err error) {
	closeFn = func() {}
	if cfg.TraceDir == "" {
		return nil, nil, closeFn, nil
	}

	if err := os.MkdirAll(cfg.TraceDir, 0o755); err != nil {
		return nil, nil, closeFn, fmt.Errorf("creating trace directory: %w", err)
	}

	var files []*os.File
	closeFn = func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	if cfg.CycleTrace {
		cycleOut, err = os.Create(filepath.Join(cfg.TraceDir, "cycle_trace.txt"))
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("creating cycle_trace.txt: %w", err)
		}
		files = append(files, cycleOut)
	}
	if cfg.InstTrace {
		instOut, err = os.Create(filepath.Join(cfg.TraceDir, "inst_trace.txt"))
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("creating inst_trace.txt: %w", err)
		}
		files = append(files, instOut)
	}

	return cycleOut, instOut, closeFn, nil
}

func dumpMemories(dir string, srami, sramd *memory.SRAM) error {
	if err := dumpOne(filepath.Join(dir, "srami_out.txt"), srami); err != nil {
		return err
	}
	return dumpOne(filepath.Join(dir, "sramd_out.txt"), sramd)
}

func dumpOne(path string, s *memory.SRAM) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return trace.DumpSRAM(f, s)
}
