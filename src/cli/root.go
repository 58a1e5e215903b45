package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type Options struct {
	ConfigPath string
	DataDir    string
}

type RootCommand struct {
	*cobra.Command
	Options Options
}

func Init(name, short string) *RootCommand {
	cmd := &RootCommand{
		Command: &cobra.Command{
			Use:          name,
			Short:        short,
			SilenceUsage: true,
		},
	}
	cmd.initFlags()

	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return cmd.applyOverrides()
	}

	return cmd
}

// applyOverrides exports flag values as environment variables so they take
// precedence over the .env file.
func (c *RootCommand) applyOverrides() error {
	if c.Options.DataDir == "" {
		return nil
	}

	return os.Setenv(dataDirEnv, c.Options.DataDir)
}

func (c *RootCommand) Execute(ctx context.Context) error {
	return c.ExecuteContext(ctx)
}

func (c *RootCommand) MustExecute(ctx context.Context) {
	if err := c.Execute(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "app failed: %v\n", err)
		os.Exit(1)
	}
}
