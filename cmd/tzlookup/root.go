package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-tzlookup/tzconfig"
	"github.com/forestrie/go-tzlookup/tzindex"
	"github.com/forestrie/go-tzlookup/tzstore"
	"github.com/spf13/cobra"
)

const (
	serviceName = "tzlookup"

	// commands annotated with noTable do not need a table source
	noTable = "noTable"
)

// flagEnv maps command line flags onto the configuration environment names
// they override.
var flagEnv = map[string]string{
	tzconfig.EnvPrefix + "TABLE_PATH":          "table",
	tzconfig.EnvPrefix + "BLOB_CONTAINER":      "blob-container",
	tzconfig.EnvPrefix + "BLOB_PATH":           "blob-path",
	tzconfig.EnvPrefix + "BLOB_ACCOUNT":        "blob-account",
	tzconfig.EnvPrefix + "BLOB_RESOURCE_GROUP": "blob-resource-group",
	tzconfig.EnvPrefix + "BLOB_SUBSCRIPTION":   "blob-subscription",
	tzconfig.EnvPrefix + "BLOB_EMULATOR":       "blob-emulator",
	tzconfig.EnvPrefix + "SEAL_PUBLIC_KEY":     "seal-key",
	tzconfig.EnvPrefix + "VERIFY_ON_LOAD":      "verify-on-load",
	tzconfig.EnvPrefix + "LOG_LEVEL":           "log-level",
	tzconfig.EnvPrefix + "POLICY":              "policy",
	tzconfig.EnvPrefix + "WORKERS":             "workers",
	tzconfig.EnvPrefix + "MAX_BATCH":           "max-batch",
	tzconfig.EnvPrefix + "LISTEN_ADDR":         "listen",
}

// newBlobStore connects to the configured storage account, or to the local
// Azurite emulator when BlobEmulator is set.
var newBlobStore = func(cfg tzconfig.Config) (tzstore.BlobReader, error) {
	if cfg.BlobEmulator {
		return azblob.NewDev(azblob.NewDevConfigFromEnv(), cfg.BlobContainer)
	}
	return azblob.New(cfg.BlobAccount, cfg.BlobResourceGroup, cfg.BlobSubscription, cfg.BlobContainer)
}

type app struct {
	cfgPath string
	cfg     tzconfig.Config
	log     logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Offline time zone lookup from latitude and longitude",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "YAML configuration file")
	f.String("table", "", "local table file")
	f.String("blob-container", "", "blob storage container holding the table")
	f.String("blob-path", "", "path of the table in the blob container")
	f.String("blob-account", "", "storage account holding the blob container")
	f.String("blob-resource-group", "", "resource group of the storage account")
	f.String("blob-subscription", "", "subscription of the storage account")
	f.Bool("blob-emulator", false, "read blobs from a local Azurite emulator (development only)")
	f.String("seal-key", "", "PEM public key; when set only sealed tables are accepted")
	f.Bool("verify-on-load", false, "walk the whole table once after loading")
	f.String("log-level", "", "DEBUG, INFO, WARN or ERROR")
	f.String("policy", "", "batch policy for out of range input: element or strict")
	f.Int("workers", 0, "batch worker goroutines")

	cmd.AddCommand(
		newLookupCmd(a),
		newBatchCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
		newPackCmd(a),
	)
	return cmd
}

// setup loads the configuration, letting flags override the environment,
// and starts the logger.
func (a *app) setup(cmd *cobra.Command) error {
	lookup := func(name string) (string, bool) {
		if f := cmd.Flags().Lookup(flagEnv[name]); f != nil && f.Changed {
			return f.Value.String(), true
		}
		return os.LookupEnv(name)
	}

	if _, ok := cmd.Annotations[noTable]; ok {
		a.cfg = tzconfig.Default()
		if v, ok := lookup(tzconfig.EnvPrefix + "LOG_LEVEL"); ok && v != "" {
			a.cfg.LogLevel = strings.ToUpper(v)
		}
	} else {
		cfg, err := tzconfig.LoadWithEnv(a.cfgPath, lookup)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	logger.New(a.cfg.LogLevel)
	a.log = logger.Sugar.WithServiceName(serviceName)
	return nil
}

// openIndex loads the configured table.
func (a *app) openIndex(ctx context.Context) (*tzindex.Index, error) {
	var opts []tzstore.Option
	if a.cfg.SealPublicKey != "" {
		data, err := os.ReadFile(a.cfg.SealPublicKey)
		if err != nil {
			return nil, err
		}
		pub, err := tzstore.ParsePublicKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.cfg.SealPublicKey, err)
		}
		opts = append(opts, tzstore.WithSealPublicKey(pub))
	}
	if a.cfg.VerifyOnLoad {
		opts = append(opts, tzstore.WithIntegrityCheck())
	}

	var src tzstore.Source
	if a.cfg.TablePath != "" {
		src = tzstore.NewFileSource(a.cfg.TablePath)
	} else {
		store, err := newBlobStore(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("blob container %s: %w", a.cfg.BlobContainer, err)
		}
		src = tzstore.NewBlobSource(store, a.cfg.BlobPath)
	}
	return tzstore.NewLoader(a.log, opts...).Load(ctx, src)
}
