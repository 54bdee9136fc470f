package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/crypto"
	"github.com/iov-one/bounty/errors"
)

const keyRefPrefix = "key:"

func (c *cli) keyPath(name string) string {
	return filepath.Join(c.home(), "keys", name+".key")
}

func (c *cli) keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <name>",
		Short: "Generate a new private key",
		Long: `Generate a new ed25519 private key stored in the keys directory of home.

This command fails if a key with the same name already exists. Reference the
key as key:<name> wherever an address is expected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.keyPath(args[0])
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				// Never overwrite a key. It must be deleted by hand.
				return errors.Wrapf(errors.ErrDuplicate, "private key file %q", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return errors.Wrap(err, "create keys directory")
			}
			key := crypto.GenPrivKeyEd25519()
			if err := ioutil.WriteFile(path, key.Ed25519, 0600); err != nil {
				return errors.Wrap(err, "write private key")
			}
			return c.printAddress(key)
		},
	}
}

func (c *cli) keyaddrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keyaddr <name>",
		Short: "Print the address of a private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey(args[0])
			if err != nil {
				return err
			}
			return c.printAddress(key)
		},
	}
}

func (c *cli) printAddress(key *crypto.PrivateKey) error {
	addr := key.PublicKey().Address()
	return c.printJSON(map[string]string{
		"address": addr.String(),
		"bech32":  addr.Bech32(),
	})
}

func (c *cli) loadKey(name string) (*crypto.PrivateKey, error) {
	raw, err := ioutil.ReadFile(c.keyPath(name))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "private key %q: %s", name, err)
	}
	key := &crypto.PrivateKey{Ed25519: raw}
	if _, err := key.Sign(nil); err != nil {
		return nil, errors.Wrapf(err, "private key %q", name)
	}
	return key, nil
}

// address decodes an address given on the command line. Besides the formats
// understood by bounty.ParseAddress, key:<name> references a local key.
func (c *cli) address(raw string) (bounty.Address, error) {
	if strings.HasPrefix(raw, keyRefPrefix) {
		key, err := c.loadKey(strings.TrimPrefix(raw, keyRefPrefix))
		if err != nil {
			return nil, err
		}
		return key.PublicKey().Address(), nil
	}
	return bounty.ParseAddress(raw)
}
