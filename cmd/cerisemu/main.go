// Command cerisemu compiles capability-machine assembly and emulates
// compiled programs or machine configurations, per spec.md §6.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeoLuxo/cerisemu/pkg/asm"
	"github.com/LeoLuxo/cerisemu/pkg/config"
	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
)

var log = logrus.New()

var (
	inPath  string
	outPath string
)

func openIn() (io.ReadCloser, error) {
	if inPath == "" {
		return io.NopCloser(os.Stdin), nil
	}
	fp, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("cerisemu: opening input %s: %w", inPath, err)
	}
	return fp, nil
}

func openOut() (io.WriteCloser, error) {
	if outPath == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	fp, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("cerisemu: creating output %s: %w", outPath, err)
	}
	return fp, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "compile assembly source into a serialised program",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openIn()
			if err != nil {
				return err
			}
			defer in.Close()
			src, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("cerisemu: reading input: %w", err)
			}
			rows, err := asm.Compile(string(src))
			if err != nil {
				return fmt.Errorf("cerisemu: compile error: %w", err)
			}
			out, err := openOut()
			if err != nil {
				return err
			}
			defer out.Close()
			if err := config.EncodeProgram(out, rows); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"component": "compile", "rows": len(rows)}).Info("compiled program")
			return nil
		},
	}
}

func newEmulateCmd() *cobra.Command {
	var (
		compileFlag   bool
		dumpFlag      bool
		backtraceFlag bool
		configPath    string
	)
	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "run a compiled program or machine configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMachine(configPath, compileFlag)
			if err != nil {
				return err
			}
			if err := machine.Run(m); err != nil {
				return fmt.Errorf("cerisemu: %w", err)
			}
			log.WithFields(logrus.Fields{
				"component": "emulate",
				"state":     m.Status().String(),
				"pc":        m.GetReg(machine.PC).String(),
			}).Info("run finished")

			if backtraceFlag {
				for _, line := range m.Backtrace() {
					log.WithField("component", "emulate").Info(line)
				}
			}

			if dumpFlag {
				out, err := openOut()
				if err != nil {
					return err
				}
				defer out.Close()
				fmt.Fprint(out, m.StatusReport())
				fmt.Fprint(out, m.Mem.String())
			}

			if m.Status() == machine.Failed {
				return fmt.Errorf("cerisemu: machine failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&compileFlag, "compile", "c", false, "treat input as assembly source instead of a compiled program")
	cmd.Flags().BoolVarP(&dumpFlag, "dump", "d", false, "write the post-run machine state to --out")
	cmd.Flags().BoolVarP(&backtraceFlag, "backtrace", "b", false, "log the executed-instruction backtrace")
	cmd.Flags().StringVar(&configPath, "config", "", "machine configuration file (YAML)")
	return cmd
}

// buildMachine constructs a Machine either from a configuration file or
// directly from --in, per spec.md §6.
func buildMachine(configPath string, compileFlag bool) (*machine.Machine, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return cfg.Build()
	}

	in, err := openIn()
	if err != nil {
		return nil, err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("cerisemu: reading input: %w", err)
	}

	var rows []memory.Row
	if compileFlag {
		rows, err = asm.Compile(string(data))
		if err != nil {
			return nil, fmt.Errorf("cerisemu: compile error: %w", err)
		}
	} else {
		rows, err = config.DecodeProgram(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	}

	size := memory.DefaultSize
	if len(rows) > size {
		size = len(rows)
	}
	m, err := machine.New(size)
	if err != nil {
		return nil, err
	}
	if err := m.Mem.LoadProgram(rows, 0); err != nil {
		return nil, err
	}
	return m, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cerisemu",
		Short:         "compiler and emulator for the capability machine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&inPath, "in", "i", "", "input file (default: stdin)")
	root.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	root.AddCommand(newCompileCmd(), newEmulateCmd())
	return root
}

func main() {
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if err := newRootCmd().Execute(); err != nil {
		log.WithField("component", "cerisemu").Error(err)
		os.Exit(1)
	}
}
