package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"xshot/src/clipboard"
	"xshot/src/compositor"
	"xshot/src/config"
	"xshot/src/export"
	"xshot/src/geometry"
	"xshot/src/runtimeinit"
	"xshot/src/screenshot"
)

const (
	maxFileSizeMB = 64
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

type cropOptions struct {
	filePath     string
	displayWidth float64
	rect         string
	density      float64
	outPath      string
	toClipboard  bool
	jsonOutput   bool
	verbose      bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &cropOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *cropOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Run the capture export pipeline on an image file without a window",
		Long: "crop treats --file as a captured display shown --display-width units wide,\n" +
			"selects --rect in those units and exports it exactly as a live session would.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG/JPEG image (use '-' for stdin)")
	cmd.Flags().Float64Var(&opts.displayWidth, "display-width", 0, "Logical display width the image was shown at (default: image width / density)")
	cmd.Flags().StringVar(&opts.rect, "rect", "", "Selection x,y,w,h in display units")
	cmd.Flags().Float64Var(&opts.density, "density", 1, "Device pixel ratio of the display")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Write the exported PNG here (use '-' for stdout)")
	cmd.Flags().BoolVar(&opts.toClipboard, "clipboard", false, "Copy the exported image to the clipboard")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print a JSON summary")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("rect")
	cmd.MarkFlagsMutuallyExclusive("out", "clipboard")
	cmd.MarkFlagsOneRequired("out", "clipboard")

	return cmd
}

func runWithOptions(ctx context.Context, opts cropOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sel, err := parseRect(opts.rect)
	if err != nil {
		return err
	}
	if opts.density <= 0 {
		return fmt.Errorf("density must be positive, got %v", opts.density)
	}

	data, err := readInput(opts.filePath)
	if err != nil {
		return err
	}
	bitmap, err := screenshot.Decode(data)
	if err != nil {
		return err
	}

	display := displayFor(bitmap.Bounds().Dx(), bitmap.Bounds().Dy(), opts.displayWidth, opts.density)
	layers, err := compositor.New(display, opts.density, bitmap, runtimeinit.CompositorOptions(cfg))
	if err != nil {
		return err
	}
	defer layers.Release()
	log.Printf("crop: %dx%d source shown at %v, scale %.4f", bitmap.Bounds().Dx(), bitmap.Bounds().Dy(), display, layers.Scale())

	var sink export.ClipboardWriter
	if opts.toClipboard {
		if err := clipboard.Init(); err != nil {
			return fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		sink = clipboard.Writer{}
	} else {
		sink = fileSink{path: opts.outPath, stdout: stdout}
	}

	start := time.Now()
	buf, err := export.Run(ctx, layers, sel, sink)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return writeSummary(stdout, summary{
			Source:   opts.filePath,
			Output:   outputName(opts),
			Width:    buf.Width,
			Height:   buf.Height,
			Crop:     geometry.ToSource(sel, layers.Scale()),
			Scale:    layers.Scale(),
			Duration: time.Since(start).Seconds(),
		})
	}
	return nil
}

// parseRect parses "x,y,w,h".
func parseRect(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("rect must be x,y,w,h, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("rect component %d: %w", i, err)
		}
		v[i] = n
	}
	r := geometry.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}
	if r.Empty() {
		return geometry.Rect{}, fmt.Errorf("rect %v has no area", r)
	}
	return r, nil
}

// displayFor keeps the source aspect ratio, like the live surface does.
func displayFor(srcW, srcH int, displayWidth, density float64) geometry.Size {
	if displayWidth <= 0 {
		displayWidth = float64(srcW) / density
	}
	return geometry.Size{W: displayWidth, H: displayWidth * float64(srcH) / float64(srcW)}
}

func readInput(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(os.Stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

// fileSink stands in for the clipboard and writes the PNG to a file or stdout.
type fileSink struct {
	path   string
	stdout io.Writer
}

func (s fileSink) WriteImage(ctx context.Context, buf export.PixelBuffer) error {
	data, err := buf.PNG()
	if err != nil {
		return err
	}
	if s.path == "-" {
		_, err = s.stdout.Write(data)
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

type summary struct {
	Source   string        `json:"source"`
	Output   string        `json:"output"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Crop     geometry.Rect `json:"crop"`
	Scale    float64       `json:"scale"`
	Duration float64       `json:"duration_seconds"`
}

func outputName(opts cropOptions) string {
	if opts.toClipboard {
		return "clipboard"
	}
	return opts.outPath
}

func writeSummary(w io.Writer, s summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
