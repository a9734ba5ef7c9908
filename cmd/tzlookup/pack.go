package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/forestrie/go-tzlookup/tzindex"
	"github.com/forestrie/go-tzlookup/tzstore"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type packFlags struct {
	nodes   string
	labels  string
	out     string
	signKey string
	buildID string
}

func newPackCmd(a *app) *cobra.Command {
	var pf packFlags

	cmd := &cobra.Command{
		Use:         "pack",
		Short:       "Pack raw node data and labels into a table blob, optionally sealed",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noTable: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.pack(cmd, pf)
		},
	}
	f := cmd.Flags()
	f.StringVar(&pf.nodes, "nodes", "", "raw node data file")
	f.StringVar(&pf.labels, "labels", "", "labels file, one identifier per line")
	f.StringVar(&pf.out, "out", "", "output table file")
	f.StringVar(&pf.signKey, "sign-key", "", "PEM ECDSA P-256 private key to seal the table with")
	f.StringVar(&pf.buildID, "build-id", "", "build id to stamp, random when empty")
	_ = cmd.MarkFlagRequired("nodes")
	_ = cmd.MarkFlagRequired("labels")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) pack(cmd *cobra.Command, pf packFlags) error {
	nodeData, err := os.ReadFile(pf.nodes)
	if err != nil {
		return err
	}
	// Line endings are never valid node bytes.
	nodeData = bytes.TrimRight(nodeData, "\r\n")

	labelData, err := os.ReadFile(pf.labels)
	if err != nil {
		return err
	}
	labels := readLabels(string(labelData))

	buildID := uuid.New()
	if pf.buildID != "" {
		if buildID, err = uuid.Parse(pf.buildID); err != nil {
			return fmt.Errorf("--build-id: %w", err)
		}
	}

	// Refuse to pack a table that would fail at lookup time.
	ix, err := tzindex.NewIndex(nodeData, labels)
	if err != nil {
		return err
	}
	st, err := ix.Verify()
	if err != nil {
		return err
	}

	blob, err := tzindex.EncodeV1(nodeData, labels, buildID)
	if err != nil {
		return err
	}

	if pf.signKey != "" {
		keyPEM, err := os.ReadFile(pf.signKey)
		if err != nil {
			return err
		}
		key, err := tzstore.ParsePrivateKeyPEM(keyPEM)
		if err != nil {
			return fmt.Errorf("%s: %w", pf.signKey, err)
		}
		if blob, err = tzstore.SealES256(blob, key); err != nil {
			return err
		}
		kid, err := tzstore.KeyID(&key.PublicKey)
		if err != nil {
			return err
		}
		a.log.Infof("sealed with kid %s", kid)
	}

	if err := os.WriteFile(pf.out, blob, 0o644); err != nil {
		return err
	}
	for _, l := range st.UnusedLabels {
		a.log.Infof("label %q is never reached", l)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: build %s, %d labels, %d blocks, %d bytes\n",
		pf.out, buildID, ix.LabelCount(), ix.BlockCount(), len(blob))
	return nil
}

// readLabels splits one label per line, ignoring a trailing newline.
func readLabels(s string) []string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return nil
	}
	labels := strings.Split(s, "\n")
	for i, l := range labels {
		labels[i] = strings.TrimSuffix(l, "\r")
	}
	return labels
}
