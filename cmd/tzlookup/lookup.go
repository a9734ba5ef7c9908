package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forestrie/go-tzlookup/tzindex"
	"github.com/spf13/cobra"
)

// missing is printed, and accepted, in place of a value.
const missing = "NA"

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup LAT LON",
		Short: "Print the time zone for one coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := parseCoord(args[0])
			if err != nil {
				return err
			}
			lon, err := parseCoord(args[1])
			if err != nil {
				return err
			}

			ix, err := a.openIndex(cmd.Context())
			if err != nil {
				return err
			}

			zone, err := ix.Resolve(lat, lon)
			switch {
			case err == nil:
			case errors.Is(err, tzindex.ErrDataIntegrity):
				return err
			default:
				a.log.Debugf("%v, %v: %v", lat, lon, err)
				zone = missing
			}
			fmt.Fprintln(cmd.OutOrStdout(), zone)
			return nil
		},
	}
}

// parseCoord reads a decimal degree value. Empty and NA mean missing.
func parseCoord(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, missing) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	return v, nil
}
