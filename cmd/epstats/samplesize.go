package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/avast/epstats/pkg/stats"
)

func newSampleSizeCmd() *cobra.Command {
	var (
		alpha         float64
		power         float64
		variants      int
		meanControl   float64
		std           float64
		stdTreatment  float64
		minimumEffect float64
		bernoulli     bool
	)

	cmd := &cobra.Command{
		Use:   "sample-size",
		Short: "Compute the per-variant sample size required to detect an effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				n   float64
				err error
			)
			if bernoulli {
				n, err = stats.RequiredSampleSizeBernoulli(alpha, power, variants, meanControl, minimumEffect)
			} else {
				treatment := stdTreatment
				if treatment == 0 {
					treatment = std
				}
				n, err = stats.RequiredSampleSize(alpha, power, variants, meanControl, std, treatment, minimumEffect)
			}
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]float64{"sample_size_per_variant": n})
		},
	}

	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "significance level")
	cmd.Flags().Float64Var(&power, "power", 0.8, "target power")
	cmd.Flags().IntVar(&variants, "variants", 2, "total number of variants, including control")
	cmd.Flags().Float64Var(&meanControl, "mean-control", 0, "control mean (or proportion, for --bernoulli)")
	cmd.Flags().Float64Var(&std, "std", 0, "control standard deviation (ignored with --bernoulli)")
	cmd.Flags().Float64Var(&stdTreatment, "std-treatment", 0, "treatment standard deviation; defaults to --std")
	cmd.Flags().Float64Var(&minimumEffect, "minimum-effect", 0, "minimum relative effect to detect")
	cmd.Flags().BoolVar(&bernoulli, "bernoulli", false, "use the Bernoulli convenience form (mean-control is a proportion)")

	return cmd
}
