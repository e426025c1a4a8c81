package commands

import (
	"velora/pkg/clients"

	"github.com/spf13/cobra"
)

func newEstimateCmd(opts *Options) *cobra.Command {
	req := &clients.EstimateRequest{}

	cmd := &cobra.Command{
		Use:     "estimate",
		Short:   "estimate monthly employee transport cost",
		Example: `  $ veloractl estimate --employees 100 --shifts 2 --distance 15 --vehicle suv --frequency daily --ac --gps`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := opts.assistant().Estimate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(opts.Stdout, opts.Output, est)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&req.EmployeeCount, "employees", 50, "number of employees")
	flags.IntVar(&req.Shifts, "shifts", 1, "shifts per day")
	flags.Float64Var(&req.DistanceKM, "distance", 10, "average distance in km")
	flags.StringVar(&req.VehicleType, "vehicle", "sedan", "vehicle type: sedan|suv|tempo")
	flags.StringVar(&req.Frequency, "frequency", "daily", "frequency: daily|weekly|monthly")
	flags.BoolVar(&req.HasAC, "ac", false, "air-conditioned vehicles")
	flags.BoolVar(&req.HasGPS, "gps", false, "GPS tracking")

	return cmd
}
