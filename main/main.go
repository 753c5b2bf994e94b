// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"net/http"
	"os"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/plasma-labs/plasmavault/examples/lendingfuse"
	"github.com/plasma-labs/plasmavault/plasmavault"
)

// Addresses the demo fuse modules are registered under when --demo is set.
var (
	demoSupplyFuse  = ids.ShortID{'d', 'e', 'm', 'o', 's', 'u', 'p', 'p', 'l', 'y'}
	demoBalanceFuse = ids.ShortID{'d', 'e', 'm', 'o', 'b', 'a', 'l', 'a', 'n', 'c', 'e'}
	demoAsset       = ids.ID{'d', 'e', 'm', 'o', 'a', 's', 's', 'e', 't'}
)

func main() {
	config, version, err := getConfig()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if version {
		fmt.Printf("%s@%s\n", plasmavault.Name, plasmavault.Version)
		os.Exit(0)
	}

	db, err := leveldb.New(config.DBDir, nil, logging.NoLog{})
	if err != nil {
		log.Error("couldn't open database", "dir", config.DBDir, "error", err)
		os.Exit(1)
	}

	gate := plasmavault.NewRoleSet()
	if config.Admin != "" {
		admin, err := ids.ShortFromString(config.Admin)
		if err != nil {
			log.Error("couldn't parse admin address", "admin", config.Admin, "error", err)
			os.Exit(1)
		}
		gate.Grant(admin, plasmavault.RoleAtomist, plasmavault.RoleFuseManager)
		log.Info("granted admin roles", "admin", admin)
	}

	bank := plasmavault.NewFuseBank()
	oracle := plasmavault.NewStaticOracle()
	if config.Demo {
		protocol := lendingfuse.NewProtocol()
		bank.RegisterExecutionFuse(demoSupplyFuse, lendingfuse.NewSupplyFuse(protocol))
		bank.RegisterBalanceFuse(demoBalanceFuse, lendingfuse.NewBalanceFuse(protocol, demoAsset))
		oracle.SetPrice(demoAsset, 1, 0)
		log.Info("registered demo lending fuses",
			"supplyFuse", demoSupplyFuse,
			"balanceFuse", demoBalanceFuse,
			"asset", demoAsset,
		)
	}

	vault, err := plasmavault.New(db, bank, gate, oracle)
	if err != nil {
		log.Error("couldn't initialize vault", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := vault.Close(); err != nil {
			log.Error("error closing vault", "error", err)
		}
	}()

	handler, err := plasmavault.NewHandler(vault)
	if err != nil {
		log.Error("couldn't create API handler", "error", err)
		os.Exit(1)
	}

	log.Info("serving vault API", "addr", config.HTTPAddr)
	if err := http.ListenAndServe(config.HTTPAddr, handler); err != nil {
		log.Error("server returned an error", "error", err)
		os.Exit(1)
	}
}
