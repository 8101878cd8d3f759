package cmd

import (
	"context"
	"fmt"

	"github.com/Oliver-Hanikel/miniserve/internal"
	"github.com/Oliver-Hanikel/miniserve/internal/cmd/create"
	"github.com/Oliver-Hanikel/miniserve/internal/cmd/methods"
	"github.com/Oliver-Hanikel/miniserve/internal/config"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type Miniserve struct {
	config.Options

	Create  create.Command  `command:"create" alias:"c" description:"archive directories to files, stdout, or S3"`
	Methods methods.Command `command:"methods" description:"list the archive methods"`
}

// ContextCommander is a flags.Commander that also accepts a context carrying the logger.
type ContextCommander interface {
	ExecuteContext(ctx context.Context, args []string) error
}

func NewParser() (*flags.Parser, *Miniserve) {
	opts := &Miniserve{}
	opts.Create = create.New(&opts.Options)
	opts.Methods = methods.New(&opts.Options)

	p := flags.NewNamedParser("miniserve-archive", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		panic(err)
	}

	return p, opts
}

// Run loads the configuration file, then parses args and executes the command.
//
// The logger is created from the final options and attached to the context passed to the command.
func Run(ctx context.Context, args []string) error {
	p, opts := NewParser()

	path, err := config.Discover(ctx, args)
	if err != nil {
		return err
	}
	if path != "" {
		if err = config.Load(p, path); err != nil {
			return err
		}
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		logger, err := internal.NewLogger(opts.Debug, opts.LogLevel)
		if err != nil {
			return err
		}
		defer func() {
			_ = logger.Sync()
		}()

		if path != "" {
			logger.Debug("loaded config", zap.String("path", path))
		}

		if command == nil {
			return fmt.Errorf("no command given")
		}
		if c, ok := command.(ContextCommander); ok {
			return c.ExecuteContext(internal.WithLogger(ctx, logger), args)
		}

		return command.Execute(args)
	}

	_, err = p.ParseArgs(args)
	return err
}
