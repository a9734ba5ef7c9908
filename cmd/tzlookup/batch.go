package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/forestrie/go-tzlookup/tzindex"
	"github.com/spf13/cobra"
)

func newBatchCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve lat,lon CSV records, writing lat,lon,zone records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ix, err := a.openIndex(cmd.Context())
			if err != nil {
				return err
			}

			r := cmd.InOrStdin()
			if in != "-" {
				f, err := os.Open(in)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			w := cmd.OutOrStdout()
			if out != "-" {
				f, ferr := os.Create(out)
				if ferr != nil {
					return ferr
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return a.batch(cmd, ix, r, w)
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "input CSV file, - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "output CSV file, - for stdout")
	return cmd
}

func (a *app) batch(cmd *cobra.Command, ix *tzindex.Index, r io.Reader, w io.Writer) error {
	records, lats, lons, err := readCoords(r)
	if err != nil {
		return err
	}

	results, err := ix.ResolveBatchParallel(
		cmd.Context(), lats, lons, a.cfg.Workers, tzindex.WithPolicy(a.cfg.BatchPolicy()))
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	var failed int
	for i, res := range results {
		zone := res.Zone
		if !res.OK() {
			zone = missing
			failed++
		}
		if err := cw.Write([]string{records[i][0], records[i][1], zone}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	a.log.Infof("resolved %d of %d coordinates", len(results)-failed, len(results))
	return nil
}

// readCoords reads two column lat,lon records, keeping the original text for
// echoing back.
func readCoords(r io.Reader) ([][]string, []float64, []float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var (
		records    [][]string
		lats, lons []float64
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		lat, err := parseCoord(rec[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		lon, err := parseCoord(rec[1])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
		lats = append(lats, lat)
		lons = append(lons, lon)
	}
	return records, lats, lons, nil
}
