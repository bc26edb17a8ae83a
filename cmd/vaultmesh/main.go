// Command vaultmesh is the CLI front-end over the client library: data
// put/get/cost and pointer create/update/get. Every subcommand runs against
// an in-process simulated swarm and a zero-cost dev wallet (grounded on the
// teacher's cmd/synnergy testnet/tokens mock subcommands); no flag selects
// a real libp2p Network or EVM Wallet.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/synnergy-network/vaultmesh"
	"github.com/synnergy-network/vaultmesh/internal/obslog"
	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/pkg/config"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

func main() {
	_ = godotenv.Load()
	if _, err := config.LoadFromEnv(); err != nil {
		obslog.New().Warnf("no config file found, using built-in defaults: %v", err)
		config.AppConfig = config.Defaults()
	}

	root := &cobra.Command{Use: "vaultmesh"}
	root.AddCommand(dataCmd())
	root.AddCommand(pointerCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newDevClient builds a Client backed by an in-memory simulated swarm, for
// local exercise of the CLI without a real DHT or wallet.
func newDevClient() *vaultmesh.Client {
	log := obslog.New()
	sim := netengine.NewSimulated(config.AppConfig.Network.ClosestPeersK)
	engine := netengine.New(sim, config.AppConfig.Network.ClosestPeersK, log)
	return vaultmesh.NewClient(engine, devQuoteSource{sim: sim}, nil, devWallet{}, log)
}

func dataCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "data", Short: "put, get, and cost blobs"}

	put := &cobra.Command{
		Use:   "put [file]",
		Short: "self-encrypt, pay, and upload a file, printing its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c := newDevClient()
			addr, err := c.DataPut(context.Background(), data)
			if err != nil {
				return err
			}
			fmt.Println(addr.String())
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get [address] [outfile]",
		Short: "fetch and reassemble a blob by data-map address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			addr := xoraddr.FromBytes(raw)
			c := newDevClient()
			data, err := c.DataGet(context.Background(), addr)
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}

	cost := &cobra.Command{
		Use:   "cost [file]",
		Short: "quote the storage cost of a file without paying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c := newDevClient()
			price, err := c.DataCost(context.Background(), data)
			if err != nil {
				return err
			}
			fmt.Println(price.String())
			return nil
		},
	}

	cmd.AddCommand(put, get, cost)
	return cmd
}

func pointerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "pointer", Short: "create, update, and read versioned pointers"}
	var keyFile string
	cmd.PersistentFlags().StringVar(&keyFile, "key-file", "vaultmesh.key", "path to the owner secret key")

	loadOwner := func() (*keys.SecretKey, error) {
		b, err := os.ReadFile(keyFile)
		if err == nil {
			raw, decErr := hex.DecodeString(string(b))
			if decErr != nil {
				return nil, fmt.Errorf("corrupt key file %s: %w", keyFile, decErr)
			}
			return keys.SecretKeyFromBytes(raw), nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		sk, genErr := keys.GenerateSecretKey()
		if genErr != nil {
			return nil, genErr
		}
		if writeErr := os.WriteFile(keyFile, []byte(hex.EncodeToString(sk.Bytes())), 0o600); writeErr != nil {
			return nil, writeErr
		}
		return sk, nil
	}

	parseTarget := func(s string) (vaultmesh.PointerTarget, error) {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return vaultmesh.PointerTarget{}, fmt.Errorf("invalid target address: %w", err)
		}
		return vaultmesh.PointerTarget{Address: xoraddr.FromBytes(raw)}, nil
	}

	create := &cobra.Command{
		Use:   "create [target-address]",
		Short: "create a fresh pointer at counter 0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := loadOwner()
			if err != nil {
				return err
			}
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			c := newDevClient()
			return c.PointerCreate(context.Background(), owner, target)
		},
	}

	update := &cobra.Command{
		Use:   "update [target-address]",
		Short: "bump the pointer's counter to reference a new target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := loadOwner()
			if err != nil {
				return err
			}
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			c := newDevClient()
			return c.PointerUpdate(context.Background(), owner, target)
		},
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "read the current pointer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := loadOwner()
			if err != nil {
				return err
			}
			c := newDevClient()
			ptr, err := c.PointerGet(context.Background(), owner.PublicKey())
			if err != nil {
				return err
			}
			fmt.Printf("counter=%d target=%s\n", ptr.Counter, ptr.Target.Address)
			return nil
		},
	}

	cmd.AddCommand(create, update, get)
	return cmd
}
