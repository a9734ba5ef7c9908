package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Walk every node of the table and report its shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.openIndex(cmd.Context())
			if err != nil {
				return err
			}
			st, err := ix.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "build id:        %s\n", ix.BuildID())
			fmt.Fprintf(out, "labels:          %d (%d reached)\n", ix.LabelCount(), st.LabelsReached)
			fmt.Fprintf(out, "blocks:          %d\n", st.Blocks)
			fmt.Fprintf(out, "root leaves:     %d\n", st.RootLeaves)
			fmt.Fprintf(out, "internal nodes:  %d\n", st.InternalNodes)
			fmt.Fprintf(out, "leaves:          %d\n", st.Leaves)
			fmt.Fprintf(out, "max depth:       %d\n", st.MaxDepth)
			fmt.Fprintf(out, "unreached bytes: %d\n", st.UnreachedBytes)
			for _, l := range st.UnusedLabels {
				fmt.Fprintf(out, "unused label:    %s\n", l)
			}
			return nil
		},
	}
}
