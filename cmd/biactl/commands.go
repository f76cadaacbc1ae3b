package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"biasev/adapters/artifact"
	"biasev/adapters/excel"
	"biasev/adapters/stats/engine"
	"biasev/app"
	"biasev/domain/stats"
	"biasev/internal/errors"

	"github.com/spf13/cobra"
)

func newTrainCmd(env *cliEnv) *cobra.Command {
	var dataPath, target, out string
	var features []string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a linear severity model and save it as an artifact",
		Long: `Fit an ordinary least squares model of the target column on numeric feature
columns and write the coefficients as a JSON or YAML artifact the server can load.

Example: biactl train --data bia.xlsx --target Severity --features Fat%,Muscle%,ECW_TBW --out model.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.NewDataReader(env.logger).ReadFile(dataPath)
			if err != nil {
				return err
			}

			trainer := app.NewTrainingService(engine.NewStatsEngine(env.logger))
			a, err := trainer.Train(cmd.Context(), table, target, features)
			if err != nil {
				return err
			}
			if err := artifact.Save(out, a); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Trained model for %q on %d rows (R² = %.4f)\n", a.Target, a.NObs, a.RSquared)
			fmt.Fprintf(w, "Features: %s\n", strings.Join(a.FeatureNames, ", "))
			fmt.Fprintf(w, "Saved to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "CSV or XLSX training table")
	cmd.Flags().StringVar(&target, "target", "", "Column to predict")
	cmd.Flags().StringSliceVar(&features, "features", nil, "Feature columns (default: every other column)")
	cmd.Flags().StringVarP(&out, "out", "o", "model.json", "Artifact path (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newAnovaCmd(env *cliEnv) *cobra.Command {
	var dataPath, target string
	var predictors []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "anova",
		Short: "Run a type-2 ANOVA of a target column on predictor columns",
		Long: `Fit target ~ predictors by least squares and print the type-2 ANOVA table.
Without --predictor every other column is used.

Example: biactl anova --data bia.csv --target Severity --predictor Fat% --predictor Group`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.NewDataReader(env.logger).ReadFile(dataPath)
			if err != nil {
				return err
			}

			analysis := app.NewAnalysisService(engine.NewStatsEngine(env.logger), nil)
			result, err := analysis.Run(cmd.Context(), table, stats.AnovaRequest{Target: target, Predictors: predictors})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printAnova(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "CSV or XLSX table")
	cmd.Flags().StringVar(&target, "target", "", "Response column")
	cmd.Flags().StringArrayVar(&predictors, "predictor", nil, "Predictor column (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func printAnova(out io.Writer, result *stats.AnovaTable) error {
	fmt.Fprintf(out, "%s ~ %s (%d observations, %d dropped)\n\n",
		result.Target, strings.Join(result.Predictors, " + "), result.NObs, result.Dropped)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tSUM_SQ\tDF\tF\tPR(>F)")
	for _, row := range result.Rows {
		f, p := "", ""
		if row.F != nil {
			f = fmt.Sprintf("%.4f", *row.F)
		}
		if row.PValue != nil {
			p = fmt.Sprintf("%.4g", *row.PValue)
		}
		fmt.Fprintf(w, "%s\t%.4f\t%d\t%s\t%s\n", row.Term, row.SumSq, row.DF, f, p)
	}
	return w.Flush()
}

func newPredictCmd(env *cliEnv) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "predict [name=value...]",
		Short: "Score one input row with a saved model",
		Long: `Score one row of feature values. Features not given take their default of 0.

Example: biactl predict --model model.json Fat%=35 Muscle%=20 ECW_TBW=0.4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(args)
			if err != nil {
				return err
			}

			m, err := artifact.LoadLinearModel(modelPath)
			if err != nil {
				return err
			}

			prediction, err := app.NewPredictionService(m, nil, env.logger).Predict(cmd.Context(), values)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), prediction.Display())
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.json", "Model artifact path")
	return cmd
}

// parseAssignments turns name=value arguments into feature values
func parseAssignments(args []string) (map[string]float64, error) {
	values := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("argument %q must look like name=value", arg))
		}
		if _, dup := values[name]; dup {
			return nil, errors.InvalidInput(fmt.Sprintf("feature %q given twice", name))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("%s: %q is not a number", name, raw))
		}
		values[name] = v
	}
	return values, nil
}

func newSchemaCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List the inputs a saved model expects, in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := artifact.LoadLinearModel(modelPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Target: %s\n\n", m.Target())
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FEATURE\tKIND\tDEFAULT")
			for _, field := range m.Schema().Fields {
				fmt.Fprintf(w, "%s\t%s\t%g\n", field.Name, field.Kind, field.Default)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.json", "Model artifact path")
	return cmd
}
