package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"thumbserver/internal/media"
	"thumbserver/internal/pipeline"
	"thumbserver/internal/workers"
)

func main() {
	size := flag.String("size", "medium", "thumbnail size bucket: small, medium, large")
	full := flag.Bool("full", false, "produce a full-size media rendition instead of a thumbnail")
	out := flag.String("o", "", "output file (default: <input>.webp)")
	candidates := flag.Int("candidates", 5, "candidate frames to score for video input")
	timeout := flag.Duration("timeout", 2*time.Minute, "generation timeout")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	media.InitVips()
	defer media.ShutdownVips()

	req := pipeline.Request{Path: input, Mode: pipeline.ModeThumbnail}
	if *full {
		req.Mode = pipeline.ModeMedia
	} else {
		bucket, err := pipeline.ParseSizeBucket(*size)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid size %q: must be small, medium, or large\n", *size)
			os.Exit(2)
		}
		req.Size = bucket
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gen := pipeline.NewGenerator(workers.NewPool(1), *candidates)
	res, err := gen.Generate(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	output := *out
	if output == "" {
		output = input + ".webp"
	}
	if err := os.WriteFile(output, res.Data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "writing %s: %v\n", output, err)
		os.Exit(1)
	}

	fmt.Printf("%s (%d bytes)\n", output, len(res.Data))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: thumbgen [flags] <file>

Generates a WebP thumbnail or media rendition for a single file using
the same pipeline the server runs. Useful for smoke-testing formats
without starting the HTTP server.

Flags:
`)
	flag.PrintDefaults()
}
