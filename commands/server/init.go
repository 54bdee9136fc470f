package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iov-one/bounty/app"
	"github.com/iov-one/bounty/errors"
)

// FlagHome is the name of the setting that points to the directory all
// files are stored under.
const FlagHome = "home"

// GenOptions builds the genesis of a new chain from the command line.
// This is application-specific.
type GenOptions func(cmd *cobra.Command, args []string) (app.Genesis, error)

// ChainInit applies the genesis to the state kept in home.
type ChainInit func(home string, gen app.Genesis) error

// InitCmd will write the genesis file into the config directory of home
// and, if apply is not nil, initialize the state with it. An existing
// genesis file is never overwritten.
func InitCmd(v *viper.Viper, gen GenOptions, apply ChainInit) *cobra.Command {
	cmd := initCmd{
		v:     v,
		gen:   gen,
		apply: apply,
	}
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the genesis file and the state",
		RunE:  cmd.run,
	}
}

type initCmd struct {
	v     *viper.Viper
	gen   GenOptions
	apply ChainInit
}

func (c initCmd) run(cmd *cobra.Command, args []string) error {
	home := c.v.GetString(FlagHome)
	genFile := GenesisFile(home)
	if fileExists(genFile) {
		return errors.Wrapf(errors.ErrDuplicate, "genesis file %s", genFile)
	}

	gen, err := c.gen(cmd, args)
	if err != nil {
		return err
	}
	if err := writeGenesis(genFile, gen); err != nil {
		return err
	}

	if c.apply == nil {
		return nil
	}
	return c.apply(home, gen)
}

// GenesisFile returns the path of the genesis file inside of home.
func GenesisFile(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

func writeGenesis(filename string, gen app.Genesis) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	out, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if err := ioutil.WriteFile(filename, out, 0600); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	return nil
}
