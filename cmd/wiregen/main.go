// Command wiregen writes <file>_wire.go codecs for //wire: declarations.
//
// It is meant to be run from a go:generate line:
//
//	//go:generate go run github.com/vango-dev/blockwire/cmd/wiregen
//
// With no arguments the file named by $GOFILE is processed.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/blockwire/internal/wiregen"
)

func main() {
	var (
		check       bool
		protoImport string
	)

	rootCmd := &cobra.Command{
		Use:   "wiregen [file.go...]",
		Short: "Generate packet codecs from //wire: directives",
		Long: `Generate EncodeTo, DecodeFrom and Descriptor methods for structs and enums
annotated with //wire:packet, //wire:struct or //wire:enum.

Examples:
  wiregen login.go              # Write login_wire.go
  wiregen --check *.go          # Fail if any generated file is stale`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				gofile := os.Getenv("GOFILE")
				if gofile == "" {
					return fmt.Errorf("no input files and $GOFILE is not set")
				}
				args = []string{gofile}
			}
			g := &wiregen.Generator{ProtocolImport: protoImport}
			for _, path := range args {
				if err := generate(g, path, check); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&check, "check", false, "Report stale generated files instead of writing them")
	rootCmd.Flags().StringVar(&protoImport, "protocol", wiregen.DefaultProtocolImport, "Import path of the protocol package")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wiregen: %s\n", err)
		os.Exit(1)
	}
}

func generate(g *wiregen.Generator, path string, check bool) error {
	f, err := wiregen.ParseFile(path, nil)
	if err != nil {
		return err
	}
	if len(f.Types) == 0 {
		return nil
	}
	code, err := g.Generate(f)
	if err != nil {
		return err
	}

	out := wiregen.OutputPath(path)
	if check {
		existing, err := os.ReadFile(out)
		if err != nil || !bytes.Equal(existing, code) {
			return fmt.Errorf("%s is out of date", out)
		}
		return nil
	}
	return os.WriteFile(out, code, 0644)
}
