package methods

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Oliver-Hanikel/miniserve/archive"
	"github.com/Oliver-Hanikel/miniserve/internal/config"
)

// Command lists the archive methods.
type Command struct {
	Enabled bool `long:"enabled" description:"list only the enabled methods"`

	opts   *config.Options
	stdout io.Writer
}

// New returns a Command that reads the enabled toggles from the given global options.
func New(opts *config.Options) Command {
	return Command{opts: opts, stdout: os.Stdout}
}

func (c *Command) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

func (c *Command) ExecuteContext(_ context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	enabled := c.opts.EnabledMethods()

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "METHOD\tEXT\tCONTENT-TYPE\tENCODING\tENABLED")
	for _, m := range archive.Methods() {
		if c.Enabled && !m.IsEnabled(enabled) {
			continue
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", m, m.Ext(), m.ContentType(), m.ContentEncoding(), m.IsEnabled(enabled))
	}

	return w.Flush()
}
