// annoconv converts annotation bundles between COCO, YOLO and Pascal VOC
// without a running service, and can print reading-order transcriptions.
package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/pkg/readorder"
	"github.com/hanscribe/hanscribe/server/bundle"
	"github.com/hanscribe/hanscribe/server/session"
)

func main() {
	parser := argparse.NewParser("annoconv", "Convert annotation bundles between COCO, YOLO and Pascal VOC")
	input := parser.String("i", "input", &argparse.Options{Help: "Input ZIP bundle (images + annotation files)", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Output ZIP bundle", Default: "out.zip"})
	format := parser.Selector("f", "format", []string{"coco", "yolo", "pascalvoc"}, &argparse.Options{Help: "Output format", Default: "coco"})
	transcribe := parser.Flag("t", "transcribe", &argparse.Options{Help: "Print reading-order transcriptions instead of converting"})
	mode := parser.Selector("m", "mode", []string{"column", "row", "original"}, &argparse.Options{Help: "Reading order for --transcribe", Default: "column"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	zipData, err := os.ReadFile(*input)
	check(err)
	batch, err := bundle.ReadBundle(logger, zipData, bundle.DefaultMaxImportFileSize)
	check(err)
	for _, name := range batch.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %v\n", name)
	}

	if *transcribe {
		for i, img := range batch.Images {
			shapes := readorder.VisibleOnly(batch.Shapes[i])
			text := readorder.TranscribeMode(shapes, readorder.Mode(*mode))
			fmt.Printf("== %v ==\n%v\n", img.Stem, text)
		}
		return
	}

	outFormat, err := codec.ParseFormat(*format)
	check(err)
	snap := session.Snapshot{Shapes: batch.Shapes}
	blobs := map[string][]byte{}
	for _, img := range batch.Images {
		snap.Images = append(snap.Images, session.ImageRecord{Name: img.Name, Blob: img.Name, Size: int64(len(img.Data))})
		snap.Sizes = append(snap.Sizes, img.Size)
		blobs[img.Name] = img.Data
	}

	out, err := os.Create(*output)
	check(err)
	fetch := func(blob string) ([]byte, error) { return blobs[blob], nil }
	check(bundle.Export(out, outFormat, snap, fetch))
	check(out.Close())
	fmt.Printf("Wrote %v images to %v\n", len(batch.Images), *output)
}

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
