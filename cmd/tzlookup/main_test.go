package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/forestrie/go-tzlookup/tzconfig"
	"github.com/forestrie/go-tzlookup/tzstore"
	"github.com/forestrie/go-tzlookup/tztesting"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLookupCmd(t *testing.T) {
	tc := tztesting.NewTestContext(t, tztesting.TestConfig{TestLabelPrefix: "cli"})
	table := tc.WriteBlob("zones.tzq")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"48.8566", "2.3522"}, "Europe/Paris"},
		{[]string{"--", "40.7128", "-74.006"}, "America/New_York"},
		{[]string{"95", "0"}, "NA"},
		{[]string{"NA", "0"}, "NA"},
		{[]string{"90", "45"}, "Etc/GMT"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(t, append([]string{"lookup", "--table", table}, tt.args...)...)
			require.NoError(t, err)
			require.Equal(t, tt.want+"\n", out)
		})
	}

	_, err := execute(t, "lookup", "--table", table, "north", "0")
	require.ErrorContains(t, err, "invalid coordinate")
}

func TestLookupNeedsTable(t *testing.T) {
	_, err := execute(t, "lookup", "1", "2")
	require.ErrorIs(t, err, tzconfig.ErrNoTableSource)
}

func TestBatchCmd(t *testing.T) {
	tc := tztesting.NewTestContext(t, tztesting.TestConfig{TestLabelPrefix: "cli"})
	table := tc.WriteBlob("zones.tzq")

	in := writeFile(t, "in.csv", []byte(strings.Join([]string{
		"# lat,lon",
		"48.8566,2.3522",
		"NA,10",
		"91,0",
		",",
		"-33.8688, 151.2093",
	}, "\n")+"\n"))
	outPath := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, "batch", "--table", table, "--workers", "2", "--in", in, "--out", outPath)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, strings.Join([]string{
		"48.8566,2.3522,Europe/Paris",
		"NA,10,NA",
		"91,0,NA",
		",,NA",
		"-33.8688,151.2093,Australia/Sydney",
	}, "\n")+"\n", string(got))

	_, err = execute(t, "batch", "--table", table, "--policy", "strict", "--in", in, "--out", outPath)
	require.ErrorContains(t, err, "position 2")

	bad := writeFile(t, "bad.csv", []byte("1,2\n3,east\n"))
	_, err = execute(t, "batch", "--table", table, "--in", bad, "--out", outPath)
	require.ErrorContains(t, err, "line 2")
}

func TestBatchLeavesNoOutputWithoutTable(t *testing.T) {
	in := writeFile(t, "in.csv", []byte("48.8566,2.3522\n"))
	outPath := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, "batch",
		"--table", filepath.Join(t.TempDir(), "missing.tzq"), "--in", in, "--out", outPath)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(outPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

type memBlobs map[string][]byte

func (m memBlobs) Reader(
	ctx context.Context,
	identity string,
	opts ...azblob.Option,
) (*azblob.ReaderResponse, error) {
	data, ok := m[identity]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return &azblob.ReaderResponse{Reader: io.NopCloser(bytes.NewReader(data))}, nil
}

// useBlobStore replaces the blob store constructor for the duration of the
// test, recording the configuration it was asked to connect with.
func useBlobStore(t *testing.T, blobs memBlobs) *tzconfig.Config {
	t.Helper()
	var seen tzconfig.Config
	orig := newBlobStore
	newBlobStore = func(cfg tzconfig.Config) (tzstore.BlobReader, error) {
		seen = cfg
		return blobs, nil
	}
	t.Cleanup(func() { newBlobStore = orig })
	return &seen
}

func TestLookupFromBlobStore(t *testing.T) {
	tc := tztesting.NewTestContext(t, tztesting.TestConfig{TestLabelPrefix: "cli"})
	seen := useBlobStore(t, memBlobs{"v1/zones.tzq": tc.Blob()})

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
		account tzconfig.Config
	}{
		{
			name: "storage account",
			args: []string{
				"--blob-account", "tzlookupprod",
				"--blob-resource-group", "tzlookup-rg",
				"--blob-subscription", "sub-1",
			},
			want: "Europe/Paris\n",
			account: tzconfig.Config{
				BlobAccount:       "tzlookupprod",
				BlobResourceGroup: "tzlookup-rg",
				BlobSubscription:  "sub-1",
			},
		},
		{
			name:    "emulator",
			args:    []string{"--blob-emulator"},
			want:    "Europe/Paris\n",
			account: tzconfig.Config{BlobEmulator: true},
		},
		{
			name:    "no account",
			args:    []string{"--blob-account", "tzlookupprod"},
			wantErr: tzconfig.ErrNoBlobAccount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*seen = tzconfig.Config{}
			args := append([]string{"lookup", "--blob-container", "tables", "--blob-path", "v1/zones.tzq"}, tt.args...)
			out, err := execute(t, append(args, "48.8566", "2.3522")...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
			require.Equal(t, "tables", seen.BlobContainer)
			require.Equal(t, tt.account.BlobAccount, seen.BlobAccount)
			require.Equal(t, tt.account.BlobResourceGroup, seen.BlobResourceGroup)
			require.Equal(t, tt.account.BlobSubscription, seen.BlobSubscription)
			require.Equal(t, tt.account.BlobEmulator, seen.BlobEmulator)
		})
	}
}

func TestVerifyCmd(t *testing.T) {
	tc := tztesting.NewTestContext(t, tztesting.TestConfig{TestLabelPrefix: "cli"})
	table := tc.WriteBlob("zones.tzq")

	out, err := execute(t, "verify", "--table", table)
	require.NoError(t, err)
	require.Contains(t, out, "build id:        "+tc.BuildID().String())
	require.Contains(t, out, "max depth:       6\n")
	require.NotContains(t, out, "unused label")
}

func TestPackCmd(t *testing.T) {
	tc := tztesting.NewTestContext(t, tztesting.TestConfig{TestLabelPrefix: "cli"})

	nodes := writeFile(t, "nodes.bin", append(bytes.Clone(tc.Index.NodeData()), '\n'))
	labels := writeFile(t, "labels.txt", []byte(strings.Join(tc.Index.Labels(), "\n")+"\n"))

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	keyPEM, err := tzstore.EncodePrivateKeyPEM(key)
	require.NoError(t, err)
	pubPEM, err := tzstore.EncodePublicKeyPEM(&key.PublicKey)
	require.NoError(t, err)
	signKey := writeFile(t, "seal.key", keyPEM)
	sealPub := writeFile(t, "seal.pub", pubPEM)

	out := filepath.Join(t.TempDir(), "zones.tzq")
	buildID := tc.BuildID().String()
	msg, err := execute(t, "pack",
		"--nodes", nodes, "--labels", labels, "--out", out,
		"--sign-key", signKey, "--build-id", buildID)
	require.NoError(t, err)
	require.Contains(t, msg, "build "+buildID)

	zone, err := execute(t, "lookup", "--table", out, "--seal-key", sealPub, "35.6762", "139.6503")
	require.NoError(t, err)
	require.Equal(t, "Asia/Tokyo\n", zone)

	_, err = execute(t, "lookup", "--table", out, "35.6762", "139.6503")
	require.ErrorIs(t, err, tzstore.ErrSealKeyMissing)

	// Unsealed tables are refused once a seal key is configured.
	plain := filepath.Join(t.TempDir(), "plain.tzq")
	_, err = execute(t, "pack", "--nodes", nodes, "--labels", labels, "--out", plain)
	require.NoError(t, err)
	_, err = execute(t, "lookup", "--table", plain, "--seal-key", sealPub, "0", "0")
	require.ErrorIs(t, err, tzstore.ErrSealRequired)
}

func TestPackRejectsBadTable(t *testing.T) {
	nodes := writeFile(t, "nodes.bin", bytes.Repeat([]byte{'#'}, 100))
	labels := writeFile(t, "labels.txt", []byte("Etc/GMT\n"))
	_, err := execute(t, "pack", "--nodes", nodes, "--labels", labels,
		"--out", filepath.Join(t.TempDir(), "x.tzq"))
	require.Error(t, err)

	_, err = execute(t, "pack", "--nodes", nodes)
	require.ErrorContains(t, err, "required flag")
}

func TestReadLabels(t *testing.T) {
	require.Equal(t, []string{"Etc/GMT", "Europe/Paris"}, readLabels("Etc/GMT\r\nEurope/Paris\r\n"))
	require.Nil(t, readLabels("\n"))
}
