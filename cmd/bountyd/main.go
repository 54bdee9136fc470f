package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/bounty/commands/server"
	"github.com/iov-one/bounty/errors"
)

const (
	flagLogLevel = "log_level"
	flagDebug    = "debug"
)

// Version is set during the build.
var Version = "dev"

// cli holds the state shared by all commands.
type cli struct {
	v      *viper.Viper
	out    io.Writer
	logger log.Logger
}

func newCLI(out io.Writer) (*cli, *cobra.Command) {
	c := &cli{
		v:      viper.New(),
		out:    out,
		logger: log.NewNopLogger(),
	}
	root := &cobra.Command{
		Use:               "bountyd",
		Short:             "Bug bounty escrow settlement node",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	fl := root.PersistentFlags()
	fl.String(server.FlagHome, filepath.Join(os.ExpandEnv("$HOME"), ".bountyd"), "directory to store files under")
	fl.String(flagLogLevel, "info", "log level: debug, info, error or none")
	fl.Bool(flagDebug, false, "print stack traces of errors")
	if err := c.v.BindPFlags(fl); err != nil {
		panic(err)
	}
	c.v.SetEnvPrefix("BOUNTY")
	c.v.AutomaticEnv()

	root.AddCommand(
		c.initCmd(),
		c.keygenCmd(),
		c.keyaddrCmd(),
		c.txCmd(),
		c.queryCmd(),
		c.statusCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the node version",
			Run: func(*cobra.Command, []string) {
				fmt.Fprintln(c.out, Version)
			},
		},
	)
	return c, root
}

// setup builds the logger once the flags are parsed.
func (c *cli) setup(*cobra.Command, []string) error {
	opt, err := log.AllowLevel(c.v.GetString(flagLogLevel))
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr)).With("module", "bountyd")
	c.logger = log.NewFilter(logger, opt)
	return nil
}

func (c *cli) home() string {
	return c.v.GetString(server.FlagHome)
}

func main() {
	c, root := newCLI(os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failure(err, c.v.GetBool(flagDebug)))
		os.Exit(1)
	}
}

// failure formats a command error together with its error code. The local
// operator sees the full message even for errors without a code.
func failure(err error, debug bool) string {
	code, _ := errors.ABCIInfo(err, false)
	if debug {
		return fmt.Sprintf("Error (code %d): %+v", code, err)
	}
	return fmt.Sprintf("Error (code %d): %s", code, err)
}
