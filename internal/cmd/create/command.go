package create

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Oliver-Hanikel/miniserve/archive"
	"github.com/Oliver-Hanikel/miniserve/internal"
	"github.com/Oliver-Hanikel/miniserve/internal/cmd/awsconfig"
	"github.com/Oliver-Hanikel/miniserve/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

// Command creates one archive per directory.
type Command struct {
	Args struct {
		Dirs []flags.Filename `positional-arg-name:"dir" description:"the directories to be archived" required:"yes"`
	} `positional-args:"yes"`
	Output string `short:"o" long:"output" description:"directory to write archives to, or - to write the archive to stdout" default:"." value-name:"DIR"`
	S3     string `long:"s3" description:"upload archives to this S3 location instead, in format s3://bucket/prefix" value-name:"URI"`
	Region string `long:"region" description:"override the AWS region of the --s3 bucket" value-name:"REGION"`

	awsconfig.ConfigLoaderMixin

	opts     *config.Options
	stdout   io.Writer
	stderr   io.Writer
	s3Client s3Client
}

// New returns a Command that reads the method and symlink policy from the given global options.
func New(opts *config.Options) Command {
	return Command{opts: opts, stdout: os.Stdout, stderr: os.Stderr}
}

func (c *Command) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext creates the archives, logging with the logger attached to ctx.
//
// A failure to archive one directory does not stop the others. The returned error says how many failed.
func (c *Command) ExecuteContext(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	m := c.opts.ArchiveMethod()
	if !m.IsEnabled(c.opts.EnabledMethods()) {
		return fmt.Errorf("archive method %s is not enabled", m)
	}

	n := len(c.Args.Dirs)
	if c.Output == "-" && c.S3 == "" && n != 1 {
		return fmt.Errorf("can only write one archive to stdout, got %d directories", n)
	}

	var (
		logger = internal.Logger(ctx)
		dst    sink
		err    error
	)

	switch {
	case c.S3 != "":
		if dst, err = c.newS3Sink(ctx); err != nil {
			return err
		}
	case c.Output == "-":
		dst = &stdoutSink{w: c.stdout}
	default:
		dst = &fileSink{dir: c.Output}
	}

	start := time.Now()
	success := 0
	var size int64
	for i, dir := range c.Args.Dirs {
		if err = ctx.Err(); err != nil {
			break
		}

		logger := logger.With(zap.String("dir", string(dir)))

		res, err := c.create(ctx, logger, dst, m, string(dir), internal.Prefix(i, n, string(dir)))
		if err != nil {
			logger.Error("create archive error", zap.Error(err))
			continue
		}

		logger.Info("created archive", zap.String("archive", res.name), zap.String("size", humanize.Bytes(uint64(res.size))))
		size += res.size
		success++
	}

	logger.Info(fmt.Sprintf("successfully archived %d/%d directories", success, n),
		zap.Stringer("method", m),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	if err = ctx.Err(); err != nil {
		return err
	}
	if success != n {
		return fmt.Errorf("failed to archive %d/%d directories", n-success, n)
	}

	return nil
}

func (c *Command) create(ctx context.Context, logger *zap.Logger, dst sink, m archive.Method, dir, description string) (result, error) {
	// validate before any file or object is created.
	name, err := m.Filename(dir)
	if err != nil {
		return result{}, err
	}

	stem := strings.TrimSuffix(name, "."+m.Ext())

	return dst.create(ctx, archiveRequest{
		method:       m,
		dir:          dir,
		stem:         stem,
		skipSymlinks: c.opts.SkipSymlinks,
		description:  description,
		stderr:       c.stderr,
		optFns: []func(*archive.Options){func(opts *archive.Options) {
			opts.Logger = logger.Named("archive")
		}},
		logger: logger,
	})
}
