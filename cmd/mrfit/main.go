// mrfit fits a nonparametric joint density to noisy, bounded
// measurements (for example planetary mass and radius) and answers
// conditional queries against the fitted density.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shbhuk/mrfit/density"
)

func main() {
	root := &cobra.Command{
		Use:           "mrfit",
		Short:         "Nonparametric density regression over bounded measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(fitCmd(), predictCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mrfit:", err)
		os.Exit(1)
	}
}

func fitCmd() *cobra.Command {
	var (
		input   string
		output  string
		dims    []string
		degrees []int
		tol     float64
		points  int
		workers int
		maxIter int
		levels  []float64
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the joint density to a CSV of measurements",
		Long: `Fit reads measurements from a CSV file with one column per dimension
key plus optional <key>_errlo and <key>_errhi uncertainty columns,
fits the Bernstein-beta mixture, and writes the artifacts as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(dims) != len(degrees) {
				return fmt.Errorf("%d dims but %d degrees", len(dims), len(degrees))
			}
			records, err := readCSV(input, dims, degrees)
			if err != nil {
				return err
			}
			ds, err := density.NewDataset(records)
			if err != nil {
				return err
			}
			fit, err := density.FitDensity(ds, density.FitOptions{
				Tol:       tol,
				Points:    points,
				Workers:   workers,
				Optimizer: density.EMOptimizer{MaxIter: maxIter},
				Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
			})
			if err != nil {
				return err
			}

			arts := fit.Artifacts()
			if len(dims) == 2 {
				for _, pair := range [][2]string{{dims[0], dims[1]}, {dims[1], dims[0]}} {
					curve, err := fit.ConditionalCurve(pair[0], pair[1], levels, workers)
					if err != nil {
						return err
					}
					arts.AddCurve(pair[0]+"_given_"+pair[1], curve)
				}
			}
			return writeArtifacts(output, arts)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input CSV file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output artifacts file, - for stdout")
	cmd.Flags().StringSliceVar(&dims, "dims", []string{"m", "r"}, "dimension keys, matching CSV columns")
	cmd.Flags().IntSliceVar(&degrees, "degrees", []int{17, 17}, "basis degrees per dimension")
	cmd.Flags().Float64Var(&tol, "tol", 1e-8, "quadrature absolute tolerance")
	cmd.Flags().IntVar(&points, "points", 100, "evaluation grid resolution")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size, 0 for GOMAXPROCS")
	cmd.Flags().IntVar(&maxIter, "max-iter", 500, "optimizer iteration budget")
	cmd.Flags().Float64SliceVar(&levels, "quantiles", []float64{0.16, 0.5, 0.84}, "quantile levels for conditional curves")
	return cmd
}

func predictCmd() *cobra.Command {
	var (
		artifacts string
		target    string
		given     []string
		levels    []float64
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Query the conditional distribution of one dimension",
		Long: `Predict loads fit artifacts and reports the conditional mean and
quantiles of the target dimension given measured values of the others,
all in linear units. Conditioning values are given as key=value or
key=value:sigma.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(artifacts)
			if err != nil {
				return err
			}
			defer f.Close()
			arts, err := density.DecodeArtifacts(f)
			if err != nil {
				return err
			}
			fit, err := arts.Fit()
			if err != nil {
				return err
			}

			obs := make(map[string]density.Observation)
			for _, g := range given {
				key, o, err := parseGiven(g)
				if err != nil {
					return err
				}
				obs[key] = o
			}

			mean, quantiles, err := fit.Predict(target, obs, levels)
			if err != nil {
				return err
			}
			fmt.Printf("%s mean %.6g\n", target, mean)
			for i, q := range levels {
				fmt.Printf("%s q%.2f %.6g\n", target, q, quantiles[i])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&artifacts, "artifacts", "a", "", "artifacts file written by mrfit fit")
	cmd.Flags().StringVarP(&target, "target", "t", "m", "target dimension key")
	cmd.Flags().StringArrayVarP(&given, "given", "g", nil, "conditioning value, key=value[:sigma]")
	cmd.Flags().Float64SliceVar(&levels, "quantiles", []float64{0.16, 0.84}, "quantile levels")
	cmd.MarkFlagRequired("artifacts")
	return cmd
}

func parseGiven(s string) (string, density.Observation, error) {
	key, rest, ok := strings.Cut(s, "=")
	if !ok {
		return "", density.Observation{}, fmt.Errorf("bad conditioning value %q, want key=value[:sigma]", s)
	}
	vs, ss, hasSigma := strings.Cut(rest, ":")
	value, err := strconv.ParseFloat(vs, 64)
	if err != nil {
		return "", density.Observation{}, fmt.Errorf("bad conditioning value %q: %v", s, err)
	}
	sigma := math.NaN()
	if hasSigma {
		sigma, err = strconv.ParseFloat(ss, 64)
		if err != nil {
			return "", density.Observation{}, fmt.Errorf("bad conditioning sigma %q: %v", s, err)
		}
	}
	return key, density.Observation{Value: value, Sigma: sigma}, nil
}

// readCSV loads the per-dimension measurement records from a CSV file
// with a header row. Each dimension key names its value column;
// <key>_errlo and <key>_errhi columns, when present, supply the
// asymmetric uncertainties.
func readCSV(path string, keys []string, degrees []int) ([]density.DimensionData, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV needs a header row and at least one measurement")
	}
	col := make(map[string]int)
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}

	parse := func(name string) ([]float64, error) {
		i, ok := col[name]
		if !ok {
			return nil, nil
		}
		out := make([]float64, len(rows)-1)
		for j, row := range rows[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %v", j+2, name, err)
			}
			out[j] = v
		}
		return out, nil
	}

	records := make([]density.DimensionData, len(keys))
	for d, key := range keys {
		values, err := parse(key)
		if err != nil {
			return nil, err
		}
		if values == nil {
			return nil, fmt.Errorf("CSV has no column %q", key)
		}
		lo, err := parse(key + "_errlo")
		if err != nil {
			return nil, err
		}
		hi, err := parse(key + "_errhi")
		if err != nil {
			return nil, err
		}
		records[d] = density.DimensionData{
			Key:        key,
			Label:      key,
			Degree:     degrees[d],
			Values:     values,
			SigmaLower: lo,
			SigmaUpper: hi,
			Min:        math.NaN(),
			Max:        math.NaN(),
		}
	}
	return records, nil
}

func writeArtifacts(path string, arts *density.Artifacts) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return arts.Encode(w)
}
