package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/bsm/alnmerge"
	"github.com/bsm/alnmerge/bamio"
	"github.com/grailbio/base/log"
)

var (
	strict        = flag.Bool("strict", false, "Abort on the first input read error instead of dropping the input")
	heapThreshold = flag.Int("heap-threshold", 0, "Number of inputs at which heap selection replaces the linear scan (negative disables)")
	compression   = flag.String("compression", "snappy", "Table output compression: snappy or none")
	blockSize     = flag.Int("block-size", 0, "Table output block size in bytes (default 4KiB)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input>... <output>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, args[:len(args)-1], args[len(args)-1]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, inputs []string, output string) error {
	isBAM := hasBAMExt(output)
	for _, name := range inputs {
		if hasBAMExt(name) != isBAM {
			return fmt.Errorf("input %s and output %s must have the same format", name, output)
		}
	}

	opts := &alnmerge.Options{
		Strict:        *strict,
		HeapThreshold: *heapThreshold,
		OnDrop: func(i int, err error) {
			log.Error.Printf("dropping input %s: %v", inputs[i], err)
		},
	}

	var stats *alnmerge.Stats
	var err error
	if isBAM {
		stats, err = mergeBAM(ctx, inputs, output, opts)
	} else {
		stats, err = mergeTables(ctx, inputs, output, opts)
	}
	if err != nil {
		return err
	}

	for i, n := range stats.PerSource {
		log.Debug.Printf("%s: %d records", inputs[i], n)
	}
	if stats.Cancelled {
		log.Printf("merge cancelled, wrote %d records to %s", stats.Selections, output)
		return context.Canceled
	}
	log.Printf("merged %d inputs, wrote %d records to %s", stats.Sources, stats.Selections, output)
	return nil
}

func hasBAMExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".bam")
}

// --------------------------------------------------------------------

func mergeBAM(ctx context.Context, inputs []string, output string, opts *alnmerge.Options) (_ *alnmerge.Stats, err error) {
	readers := make([]*bam.Reader, 0, len(inputs))
	headers := make([]*sam.Header, 0, len(inputs))
	for _, name := range inputs {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		r, err := bam.NewReader(f, 0)
		if err != nil {
			return nil, fmt.Errorf("could not open input %s: %w", name, err)
		}
		defer r.Close()

		readers = append(readers, r)
		headers = append(headers, r.Header())
	}

	header, translators, err := bamio.Reconcile(headers)
	if err != nil {
		return nil, err
	}
	for _, id := range bamio.DivergentReadGroups(headers) {
		log.Error.Printf("read group %s is declared differently by several inputs, keeping the first", id)
	}

	sources := make([]alnmerge.Source[bamio.Record], len(readers))
	for i, r := range readers {
		if !translators[i].Monotonic() {
			return nil, fmt.Errorf("reference order of %s differs from the merged header", inputs[i])
		}
		sources[i] = alnmerge.Translate[bamio.Record](bamio.NewSource(r), translators[i].Apply)
	}

	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	defer closeErr(f, &err)

	w, err := bam.NewWriter(f, header, 0)
	if err != nil {
		return nil, err
	}
	defer closeErr(w, &err)

	return alnmerge.Merge[bamio.Record](ctx, sources, bamio.NewSink(w), opts)
}

func mergeTables(ctx context.Context, inputs []string, output string, opts *alnmerge.Options) (_ *alnmerge.Stats, err error) {
	codec, err := alnmerge.ParseCompression(*compression)
	if err != nil {
		return nil, err
	}

	sources := make([]alnmerge.Source[*alnmerge.Entry], 0, len(inputs))
	for _, name := range inputs {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			return nil, err
		}

		r, err := alnmerge.NewReader(f, fi.Size())
		if err != nil {
			return nil, fmt.Errorf("could not open input %s: %w", name, err)
		}

		src, err := alnmerge.NewTableSource(r)
		if err != nil {
			return nil, err
		}
		defer src.Release()

		sources = append(sources, src)
	}

	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	defer closeErr(f, &err)

	w := alnmerge.NewWriter(f, &alnmerge.WriterOptions{
		BlockSize:   *blockSize,
		Compression: codec,
	})
	defer closeErr(w, &err)

	return alnmerge.Merge[*alnmerge.Entry](ctx, sources, alnmerge.NewTableSink(w), opts)
}

func closeErr(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil && !errors.Is(cerr, os.ErrClosed) {
		*err = cerr
	}
}
