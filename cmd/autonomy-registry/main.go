// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/inconshreveable/log15"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/autonomy-network/autonomy-registry/api"
	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/metrics"
	"github.com/autonomy-network/autonomy-registry/registry"
	"github.com/autonomy-network/autonomy-registry/solo"
	"github.com/autonomy-network/autonomy-registry/state"
)

var (
	version   string
	gitCommit string
	gitTag    string
	log       = log15.New()
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "autonomy-registry",
		Usage:     "Task automation registry node",
		Copyright: "2022 Autonomy Network",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			pprofFlag,
			enableMetricsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene := devGenesis()
	if path := ctx.String(genesisFlag.Name); path != "" {
		loaded, err := loadGenesis(path)
		if err != nil {
			fatal(err)
		}
		gene = loaded
	}

	db := openDB(ctx)
	defer func() { log.Info("closing database..."); db.Close() }()

	regAddr, err := gene.registryAddress()
	if err != nil {
		fatal("registry address:", err)
	}
	reg := registry.New(regAddr, state.New(db))

	initialized, err := reg.Initialized()
	if err != nil {
		fatal(err)
	}
	if !initialized {
		params, err := gene.params()
		if err != nil {
			fatal(err)
		}
		if err := reg.Instantiate(params); err != nil {
			fatal("instantiate registry:", err)
		}
		log.Info("registry instantiated", "genesis", gene.Name, "address", regAddr)
	}

	host := solo.NewHost(reg)
	if err := fundGenesisAccounts(gene, host); err != nil {
		fatal(err)
	}

	apiURL, srvClose := startAPIServer(ctx, api.New(host, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		PprofOn:        ctx.Bool(pprofFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
	}))
	defer func() { log.Info("stopping API server..."); srvClose() }()

	printStartupMessage(gene, regAddr, apiURL)

	host.Run(handleExitSignal())
	return nil
}

func fundGenesisAccounts(gene *Genesis, host *solo.Host) error {
	for _, account := range gene.Accounts {
		addr, err := auto.ParseAddress(account.Address)
		if err != nil {
			return err
		}
		for _, balance := range account.Balances {
			host.Mint(addr, asset.NewCoin(balance.Denom, balance.Amount.Int))
		}
		for _, token := range account.Tokens {
			contract, err := auto.ParseAddress(token.Contract)
			if err != nil {
				return err
			}
			host.MintToken(contract, addr, token.Amount.Int)
		}
	}
	return nil
}

func printStartupMessage(gene *Genesis, regAddr auto.Address, apiURL string) {
	fmt.Printf(`Starting autonomy-registry %v
    Genesis      [ %v ]
    Registry     [ %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		gene.Name,
		regAddr,
		apiURL)
}
