// Package main provides the FFNet CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ffnet-ml/ffnet/internal/serialization"
)

const version = "v0.2.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("FFNet %s\n", version)
	case "inspect":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ffnet inspect <file>")
			os.Exit(2)
		}
		if err := inspect(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "ffnet: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("FFNet - Feed-forward classifier checkpoints for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version           Show version")
	fmt.Println("  inspect <file>    Print a checkpoint's header")
}

// inspect prints the header of a checkpoint artifact. It never
// constructs a model; only the header and tensor metadata are read.
func inspect(path string) error {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	header := reader.Header()
	arch := reader.Arch()

	fmt.Printf("file:           %s\n", path)
	fmt.Printf("format version: %d\n", header.FormatVersion)
	fmt.Printf("ffnet version:  %s\n", header.FFNetVersion)
	fmt.Printf("created at:     %s\n", header.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("architecture:   input=%d output=%d hidden=%v\n",
		arch.InputSize, arch.OutputSize, arch.HiddenLayers)
	fmt.Printf("checksum:       %s (verified)\n", header.Checksum)

	if len(header.Metadata) > 0 {
		fmt.Println("metadata:")
		for k, v := range header.Metadata {
			fmt.Printf("  %s = %s\n", k, v)
		}
	}

	fmt.Printf("tensors (%d):\n", len(header.Tensors))
	var total int64
	for _, meta := range header.Tensors {
		fmt.Printf("  %-28s %-8s %-14v %8d bytes\n", meta.Name, meta.DType, meta.Shape, meta.Size)
		total += meta.Size
	}
	fmt.Printf("total parameter data: %d bytes\n", total)

	return nil
}
