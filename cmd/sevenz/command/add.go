package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/sevenz"
)

const (
	AddDescription = "Create a 7z archive from files"
	AddHelp        = AddDescription + "\n\n" +
		"Every FILE is stored as its own entry, in the order given. Relative\n" +
		"paths are kept as entry names; absolute paths and paths outside the\n" +
		"working directory are stored under their base name. An existing\n" +
		"ARCHIVE is overwritten, and removed again if any file fails."
)

// Add represents the `add` command of the sevenz cli tool.
type Add struct {
	Method       string `short:"m" long:"method" default:"lzma2" choice:"lzma2" choice:"copy" choice:"deflate" choice:"zstd" choice:"lz4" description:"Compression method"`
	Level        int    `short:"l" long:"level" description:"Method-specific compression level, 0 selects the default"`
	DictSize     int    `long:"dict-size" description:"LZMA2 dictionary size in bytes, 0 selects 8 MiB"`
	FinalizeEach bool   `long:"finalize-each" description:"Rewrite the end header after every file so a partial archive stays readable"`
	Digest       bool   `long:"digest" description:"Print the sha256 digest of the finished archive"`
	Strict       bool   `long:"strict" description:"Fail if a file changes while it is compressed"`
	Verbose      bool   `short:"v" long:"verbose" description:"Activates the verbose mode"`

	Args struct {
		Archive string   `positional-arg-name:"ARCHIVE" description:"Archive to create"`
		Files   []string `positional-arg-name:"FILE" required:"1" description:"Files to add"`
	} `positional-args:"yes" required:"yes"`

	Stdout io.Writer
	Stderr io.Writer
}

// Execute writes the archive, it honors the go-flags.Commander interface.
func (c *Add) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx)
}

func (c *Add) run(ctx context.Context) error {
	logger := c.logger()

	method, ok := sevenz.ParseMethod(c.Method)
	if !ok {
		return fmt.Errorf("unknown method %q", c.Method)
	}
	if len(c.Args.Files) == 0 {
		return errors.New("no files to add")
	}

	if err := statInputs(ctx, c.Args.Files); err != nil {
		return err
	}

	opts := []sevenz.Option{
		sevenz.WithMethod(method),
		sevenz.WithLevel(c.Level),
		sevenz.WithDictSize(c.DictSize),
		sevenz.WithFinalizeOnAdd(c.FinalizeEach),
		sevenz.WithLogger(logger),
		sevenz.WithMaxEntries(-1),
	}
	if c.Strict {
		opts = append(opts, sevenz.WithChangeDetection(sevenz.ChangeDetectionStrict))
	}
	if c.Digest {
		opts = append(opts, sevenz.WithDigest(digest.SHA256))
	}

	w, err := sevenz.Create(c.Args.Archive, opts...)
	if err != nil {
		return err
	}

	var total, packed uint64
	for _, path := range c.Args.Files {
		entry, err := w.Add(ctx, path)
		if err != nil {
			_ = w.Close()
			_ = os.Remove(c.Args.Archive)
			return err
		}
		total += entry.Size
		packed += entry.PackedSize
		logger.Info("added", "name", entry.Name, "size", entry.Size, "packed_size", entry.PackedSize)
	}

	if err := w.Close(); err != nil {
		_ = os.Remove(c.Args.Archive)
		return err
	}

	out := c.stdout()
	fmt.Fprintf(out, "%s: %d files, %d bytes, %d packed\n", c.Args.Archive, len(c.Args.Files), total, packed)
	if c.Digest {
		fmt.Fprintf(out, "%s  %s\n", w.Digest(), c.Args.Archive)
	}
	return nil
}

// statInputs checks every input concurrently before the archive is created,
// so a typo in the last argument does not cost a full compression run.
func statInputs(ctx context.Context, paths []string) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())

	for _, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return &fs.PathError{Op: "add", Path: path, Err: errors.New("not a regular file")}
			}
			return nil
		})
	}
	return eg.Wait()
}

func (c *Add) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr(), &slog.HandlerOptions{Level: level}))
}

func (c *Add) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Add) stderr() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}
