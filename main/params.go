// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	versionKey  = "version"
	dbDirKey    = "db-dir"
	httpAddrKey = "http-addr"
	adminKey    = "admin"
	demoKey     = "demo"
)

// Config holds the daemon's startup parameters.
type Config struct {
	DBDir    string
	HTTPAddr string
	// Admin is the address granted both the atomist and fuse-manager roles
	// at startup. Empty leaves the vault fully locked down.
	Admin string
	// Demo registers the example lending fuses so the vault is exercisable
	// out of the box.
	Demo bool
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("plasmavault", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quits")
	fs.String(dbDirKey, "db", "Directory for the vault database")
	fs.String(httpAddrKey, "127.0.0.1:9750", "Address the API server listens on")
	fs.String(adminKey, "", "Address granted the atomist and fuse-manager roles")
	fs.Bool(demoKey, false, "Register the example lending fuses")

	return fs
}

// getViper returns the viper environment for the daemon
func getViper() (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	return v, nil
}

func getConfig() (Config, bool, error) {
	v, err := getViper()
	if err != nil {
		return Config{}, false, err
	}

	if v.GetBool(versionKey) {
		return Config{}, true, nil
	}

	return Config{
		DBDir:    v.GetString(dbDirKey),
		HTTPAddr: v.GetString(httpAddrKey),
		Admin:    v.GetString(adminKey),
		Demo:     v.GetBool(demoKey),
	}, false, nil
}
