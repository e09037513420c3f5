package app

import "github.com/spf13/cobra"

// newViewCmd groups the grid layouts under one parent for discoverability.
func newViewCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Lay out events for day, week and month grids",
	}
	cmd.AddCommand(newDayCmd(opts))
	cmd.AddCommand(newWeekCmd(opts))
	cmd.AddCommand(newMonthCmd(opts))
	return cmd
}
