package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cinder/internal/vm"
)

var errorColor = color.New(color.FgRed, color.Bold)

var demoCmd = &cobra.Command{
	Use:   "demo [flags]",
	Short: "Execute a built-in demonstration program",
	Long:  `Execute one of the built-in instruction sequences and print the rendered result`,
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().String("program", "arith", "program to run ("+demoProgramNames()+")")
	demoCmd.Flags().Int("max-objects", vm.DefaultMaxObjects, "live-object threshold that triggers collection")
	demoCmd.Flags().Bool("gc", true, "enable automatic garbage collection")
	demoCmd.Flags().Bool("vm-trace", false, "trace execution, allocations and collections to stderr")
	demoCmd.Flags().Bool("show-heap", false, "print the live heap after execution")
	demoCmd.Flags().String("heap-dump", "", "write a msgpack heap snapshot to this path")
}

func runDemo(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("program")
	if err != nil {
		return fmt.Errorf("failed to get program flag: %w", err)
	}
	maxObjects, err := cmd.Flags().GetInt("max-objects")
	if err != nil {
		return fmt.Errorf("failed to get max-objects flag: %w", err)
	}
	gcOn, err := cmd.Flags().GetBool("gc")
	if err != nil {
		return fmt.Errorf("failed to get gc flag: %w", err)
	}
	vmTrace, err := cmd.Flags().GetBool("vm-trace")
	if err != nil {
		return fmt.Errorf("failed to get vm-trace flag: %w", err)
	}
	showHeap, err := cmd.Flags().GetBool("show-heap")
	if err != nil {
		return fmt.Errorf("failed to get show-heap flag: %w", err)
	}
	dumpPath, err := cmd.Flags().GetString("heap-dump")
	if err != nil {
		return fmt.Errorf("failed to get heap-dump flag: %w", err)
	}

	// Manifest values apply where flags were left at their defaults.
	var traceOutput string
	if manifest, ok, err := loadProjectManifest("."); err != nil {
		return err
	} else if ok {
		if !cmd.Flags().Changed("max-objects") && manifest.Config.VM.MaxObjects > 0 {
			maxObjects = manifest.Config.VM.MaxObjects
		}
		if !cmd.Flags().Changed("gc") {
			gcOn = manifest.Config.VM.GC
		}
		traceOutput = manifest.Config.Trace.Output
	}

	prog, err := demoProgram(name)
	if err != nil {
		return err
	}

	tracer, cleanup, err := buildTracer(vmTrace, traceOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	it := vm.NewWithOptions(prog, vm.Options{
		MaxObjects: maxObjects,
		DisableGC:  !gcOn,
		Trace:      tracer,
	})
	if it == nil {
		return fmt.Errorf("program %q has no executable instructions", name)
	}

	top, vmErr := it.Run()
	if vmErr != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint(vmErr.Error()))
		return fmt.Errorf("execution failed: %w", vmErr)
	}

	rendered, err := it.Display(top)
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s => %s\n", name, rendered)

	if showHeap {
		if dump := it.VM().DumpString(); dump != "" {
			fmt.Fprint(cmd.OutOrStdout(), dump)
		}
	}
	if dumpPath != "" {
		if err := writeHeapDump(dumpPath, it.VM()); err != nil {
			return fmt.Errorf("failed to write heap dump: %w", err)
		}
	}
	return nil
}

// buildTracer wires tracing output: --vm-trace sends events to stderr,
// otherwise a manifest [trace] output path is honored.
func buildTracer(vmTrace bool, outputPath string) (*vm.Tracer, func(), error) {
	if vmTrace {
		return vm.NewTracer(os.Stderr), func() {}, nil
	}
	if outputPath == "" {
		return nil, func() {}, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	cleanup := func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close trace output: %v\n", err)
		}
	}
	return vm.NewTracer(f), cleanup, nil
}

func writeHeapDump(path string, machine *vm.VM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := vm.WriteSnapshot(f, machine.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
