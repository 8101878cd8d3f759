package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// FileName is the name of the configuration file that Find looks for.
const FileName = ".miniserve"

// Find will traverse the directory hierarchy upwards from dir to find the first ".miniserve" file available.
//
// An empty string is returned if no such file exists.
func Find(ctx context.Context, dir string) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("find config (dir=%s) error: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		path := filepath.Join(cur, FileName)
		switch fi, err := os.Stat(path); {
		case err == nil && !fi.IsDir():
			return path, nil
		case err == nil, os.IsNotExist(err):
			parent := filepath.Dir(cur)
			if parent == cur {
				return "", nil
			}

			cur = parent
		default:
			return "", fmt.Errorf("find config (path=%s) error: %w", path, err)
		}
	}
}

// Load parses the ini file at path into the options of the given parser.
//
// Options that have no section header apply to the top-level options. Load must be called before the parser parses
// the command line so that arguments take precedence over file values.
func Load(p *flags.Parser, path string) error {
	if err := flags.NewIniParser(p).ParseFile(path); err != nil {
		return fmt.Errorf("load config (path=%s) error: %w", path, err)
	}

	return nil
}

// FlagValue returns the value of --config from args without parsing anything else.
func FlagValue(args []string) (string, error) {
	var opts struct {
		Config string `long:"config"`
	}

	if _, err := flags.NewParser(&opts, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return "", fmt.Errorf("parse --config error: %w", err)
	}

	return opts.Config, nil
}

// Discover returns the path to the configuration file to use for the given command-line arguments.
//
// The value of --config wins if given. Otherwise, Find is called from the working directory.
func Discover(ctx context.Context, args []string) (string, error) {
	path, err := FlagValue(args)
	if err != nil || path != "" {
		return path, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory error: %w", err)
	}

	return Find(ctx, wd)
}
