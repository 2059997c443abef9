// Command ppmfill flood-fills a region of a PPM image, or serves the same
// operations to MCP clients over stdio.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/ppmfill/internal/config"
	"github.com/ironsheep/ppmfill/internal/floodfill"
	"github.com/ironsheep/ppmfill/internal/logging"
	"github.com/ironsheep/ppmfill/internal/ppm"
	"github.com/ironsheep/ppmfill/internal/raster"
	"github.com/ironsheep/ppmfill/internal/server"
)

// Version information - set by ldflags during build
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errUsage marks command-line mistakes, which exit with status 2.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "ppmfill %s\n", server.Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return exitOK
		case "--help", "-h", "help":
			printUsage(stdout)
			return exitOK
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fail(stderr, err)
	}

	logger := logging.New(logging.Options{
		Level:    logging.ParseLevel(cfg.LogLevel, zapcore.InfoLevel),
		FilePath: cfg.LogFile,
		Console:  stderr,
	}).With(zap.String("run_id", uuid.NewString()))
	defer logger.Sync() //nolint:errcheck

	if len(args) > 0 && args[0] == "serve" {
		if err := server.New(cfg, logger).Run(); err != nil {
			logger.Error("server error", zap.Error(err))
			return fail(stderr, err)
		}
		return exitOK
	}

	if err := fill(args, cfg, logger, stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			printUsage(stderr)
			return exitUsage
		}
		return fail(stderr, err)
	}
	return exitOK
}

// fillRequest is a parsed fill command line.
type fillRequest struct {
	input    string
	output   string
	encoding raster.Encoding
	row, col int
	target   raster.Color
}

func parseFillArgs(args []string, stderr io.Writer) (*fillRequest, error) {
	fs := flag.NewFlagSet("ppmfill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}
	output := fs.String("o", "", "write the result to `path` instead of overwriting the input")
	format := fs.String("format", "", "write as p3 (text) or p6 (binary) instead of the input's encoding")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	pos := fs.Args()
	if len(pos) != 6 {
		return nil, fmt.Errorf("%w: expected 6 arguments, got %d", errUsage, len(pos))
	}

	req := &fillRequest{input: pos[0], output: *output}
	if req.output == "" {
		req.output = req.input
	}
	if *format != "" {
		enc, ok := raster.ParseEncoding(*format)
		if !ok {
			return nil, fmt.Errorf("%w: unknown format %q", errUsage, *format)
		}
		req.encoding = enc
	}

	var nums [5]int
	for i, name := range []string{"row", "col", "red", "green", "blue"} {
		n, err := strconv.Atoi(pos[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", errUsage, name, pos[i+1])
		}
		nums[i] = n
	}
	req.row, req.col = nums[0], nums[1]
	// Channels narrow like any int-to-byte conversion: 256 becomes 0.
	req.target = raster.Color{R: uint8(nums[2]), G: uint8(nums[3]), B: uint8(nums[4])}
	return req, nil
}

// fill runs decode, fill and encode. The output is written even when the
// fill changes nothing, so a format conversion still takes effect.
func fill(args []string, cfg config.Config, logger *zap.Logger, stderr io.Writer) error {
	req, err := parseFillArgs(args, stderr)
	if err != nil {
		return err
	}

	m, err := ppm.ReadFile(req.input, cfg.MaxPixels)
	if err != nil {
		return err
	}
	logger.Debug("decoded image",
		zap.String("path", req.input),
		zap.Int("width", m.Width),
		zap.Int("height", m.Height),
		zap.String("format", m.Encoding.Tag()))

	res, err := floodfill.Fill(m, req.row, req.col, req.target)
	if err != nil {
		m.Release()
		return err
	}

	if req.encoding.Valid() {
		m.Encoding = req.encoding
	}
	format := m.Encoding.Tag()
	if err := ppm.WriteFile(req.output, m); err != nil {
		return err
	}

	logger.Info("fill complete",
		zap.String("input", req.input),
		zap.String("output", req.output),
		zap.String("format", format),
		zap.Int("row", req.row),
		zap.Int("col", req.col),
		zap.String("origin", res.Origin.Hex()),
		zap.String("target", req.target.Hex()),
		zap.Int("filled", res.Filled),
		zap.Bool("no_op", res.NoOp))
	return nil
}

func fail(stderr io.Writer, err error) int {
	color.New(color.FgRed, color.Bold).Fprint(stderr, "error: ")
	fmt.Fprintln(stderr, err)
	return exitFail
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ppmfill - flood fill for PPM (P3/P6) images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ppmfill [-o output] [-format p3|p6] <input> <row> <col> <red> <green> <blue>")
	fmt.Fprintln(w, "  ppmfill serve")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The region of uniform color containing (row, col) is recolored and the")
	fmt.Fprintln(w, "image is written back to <input> unless -o is given. Files ending in .gz")
	fmt.Fprintln(w, "or .zst are read and written compressed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -o path          Write the result to path")
	fmt.Fprintln(w, "  -format p3|p6    Choose the output encoding")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "serve runs an MCP server on stdin/stdout.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug|info|warn|error\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s=path       Also log JSON to a rotating file\n", config.EnvLogFile)
	fmt.Fprintf(w, "  %s=n        Largest image accepted (width*height)\n", config.EnvMaxPixels)
	fmt.Fprintf(w, "  %s=n      Longest edge of server previews\n", config.EnvPreviewSize)
	fmt.Fprintf(w, "  %s=path         YAML file with the same settings\n", config.EnvConfigFile)
}
