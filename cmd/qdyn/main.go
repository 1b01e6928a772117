package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/qdyn/internal/config"
	"github.com/san-kum/qdyn/internal/linalg"
	"github.com/san-kum/qdyn/internal/metrics"
	"github.com/san-kum/qdyn/internal/operators"
)

var (
	configFile  string
	evalTime    float64
	timeRange   string
	output      string
	stateValues string
	observables bool
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:   "qdyn",
		Short: "Evaluate time-dependent quantum generators from model files",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "model file (YAML)")
	_ = root.MarkPersistentFlagRequired("config")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Summarize a model file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the generator at one or more times",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(logger)
		},
	}
	evalCmd.Flags().Float64VarP(&evalTime, "time", "t", 0, "evaluation time")
	evalCmd.Flags().StringVar(&timeRange, "times", "", "time range t0:t1:steps")
	evalCmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or csv")

	rhsCmd := &cobra.Command{
		Use:   "rhs",
		Short: "Evaluate the derivative for a given state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRHS(logger)
		},
	}
	rhsCmd.Flags().Float64VarP(&evalTime, "time", "t", 0, "evaluation time")
	rhsCmd.Flags().StringVarP(&stateValues, "state", "s", "", "comma-separated state entries (row-major for density matrices)")
	rhsCmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or csv")
	rhsCmd.Flags().BoolVar(&observables, "observables", false, "print trace and purity of the input state")
	_ = rhsCmd.MarkFlagRequired("state")

	root.AddCommand(infoCmd, evalCmd, rhsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadModel() (*config.Config, *config.Model, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	model, err := config.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, model, nil
}

func runInfo() error {
	cfg, model, err := loadModel()
	if err != nil {
		return err
	}
	ham, diss := model.Collection.NumOperators()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "representation\t%s\n", cfg.Representation)
	fmt.Fprintf(w, "dimension\t%d\n", cfg.Dimension)
	fmt.Fprintf(w, "hamiltonian terms\t%d\n", ham)
	fmt.Fprintf(w, "dissipator terms\t%d\n", diss)
	if cfg.Representation == "sparse" || cfg.Representation == "sparse_lindblad" {
		fmt.Fprintf(w, "decimals\t%d\n", cfg.Decimals)
	}
	if d := model.Collection.Drift(); d != nil {
		if s, ok := d.(*linalg.CSR); ok {
			fmt.Fprintf(w, "drift nnz\t%d\n", s.NNZ())
		} else {
			fmt.Fprintf(w, "drift\tset\n")
		}
	}
	return w.Flush()
}

func runEval(logger *zap.Logger) error {
	cfg, model, err := loadModel()
	if err != nil {
		return err
	}
	times, err := evalTimes()
	if err != nil {
		return err
	}
	logger.Info("evaluating generator",
		zap.String("model", configFile),
		zap.String("representation", cfg.Representation),
		zap.Int("times", len(times)))

	start := time.Now()
	mats := make([]*linalg.CDense, 0, len(times))
	for _, t := range times {
		gen, _, err := operators.Evaluate(model.Collection, model.Signals(t), nil)
		if err != nil {
			if errors.Is(err, operators.ErrGeneratorUnsupported) {
				return fmt.Errorf("%w; use the rhs command with a state instead", err)
			}
			return err
		}
		mats = append(mats, gen.Dense())
	}
	logger.Info("evaluation finished", zap.Duration("elapsed", time.Since(start)))

	return writeMatrices(times, mats)
}

func runRHS(logger *zap.Logger) error {
	cfg, model, err := loadModel()
	if err != nil {
		return err
	}
	entries, err := parseComplexList(stateValues)
	if err != nil {
		return err
	}
	state, density, err := buildState(cfg, entries)
	if err != nil {
		return err
	}

	if observables && density != nil {
		tr, err := metrics.Trace(density)
		if err != nil {
			return err
		}
		purity, err := metrics.Purity(density)
		if err != nil {
			return err
		}
		fmt.Printf("trace: %s\npurity: %g\n", formatComplex(tr), purity)
	}

	logger.Info("evaluating rhs",
		zap.String("model", configFile),
		zap.String("representation", cfg.Representation),
		zap.Float64("time", evalTime))

	_, dy, err := operators.Evaluate(model.Collection, model.Signals(evalTime), &state)
	if err != nil {
		return err
	}

	var out *linalg.CDense
	if dy.Vector != nil {
		out = dy.Vector
	} else {
		out = dy.Density[0]
	}
	return writeMatrices([]float64{evalTime}, []*linalg.CDense{out})
}

// buildState interprets the flat entry list per the model representation:
// density matrices (row-major n×n) for Lindblad representations, column
// vectors otherwise (length n, or n² for the vectorized representation).
func buildState(cfg *config.Config, entries []complex128) (operators.State, *linalg.CDense, error) {
	n := cfg.Dimension
	switch cfg.Representation {
	case "dense_lindblad", "sparse_lindblad":
		if len(entries) != n*n {
			return operators.State{}, nil, fmt.Errorf("state has %d entries, want %d for a %dx%d density matrix", len(entries), n*n, n, n)
		}
		rho := linalg.NewCDense(n, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				rho.Set(i, j, entries[i*n+j])
			}
		}
		return operators.DensityState(rho), rho, nil
	case "vectorized_lindblad":
		if len(entries) != n*n {
			return operators.State{}, nil, fmt.Errorf("state has %d entries, want %d for a column-stacked density matrix", len(entries), n*n)
		}
		v := linalg.NewCDense(n*n, 1)
		for i, e := range entries {
			v.Set(i, 0, e)
		}
		rho, err := linalg.UnvecCol(v)
		if err != nil {
			return operators.State{}, nil, err
		}
		return operators.VectorState(v), rho, nil
	default:
		if len(entries) != n {
			return operators.State{}, nil, fmt.Errorf("state has %d entries, want %d", len(entries), n)
		}
		v := linalg.NewCDense(n, 1)
		for i, e := range entries {
			v.Set(i, 0, e)
		}
		return operators.VectorState(v), nil, nil
	}
}

func evalTimes() ([]float64, error) {
	if timeRange == "" {
		return []float64{evalTime}, nil
	}
	parts := strings.Split(timeRange, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("times must be t0:t1:steps, got %q", timeRange)
	}
	t0, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("bad t0: %w", err)
	}
	t1, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("bad t1: %w", err)
	}
	steps, err := strconv.Atoi(parts[2])
	if err != nil || steps < 1 {
		return nil, fmt.Errorf("bad step count %q", parts[2])
	}
	times := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		times[i] = t0 + (t1-t0)*float64(i)/float64(steps)
	}
	return times, nil
}

func parseComplexList(s string) ([]complex128, error) {
	parts := strings.Split(s, ",")
	out := make([]complex128, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseComplex(strings.TrimSpace(p), 128)
		if err != nil {
			return nil, fmt.Errorf("bad state entry %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

type matrixRecord struct {
	Time float64    `json:"time"`
	Rows [][]string `json:"rows"`
}

func writeMatrices(times []float64, mats []*linalg.CDense) error {
	records := make([]matrixRecord, len(mats))
	for k, m := range mats {
		rows, cols := m.Dims()
		rec := matrixRecord{Time: times[k], Rows: make([][]string, rows)}
		for i := 0; i < rows; i++ {
			rec.Rows[i] = make([]string, cols)
			for j := 0; j < cols; j++ {
				rec.Rows[i][j] = formatComplex(m.At(i, j))
			}
		}
		records[k] = rec
	}

	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "csv":
		w := csv.NewWriter(os.Stdout)
		for _, rec := range records {
			for i, row := range rec.Rows {
				line := make([]string, 0, len(row)+2)
				line = append(line, strconv.FormatFloat(rec.Time, 'g', -1, 64), strconv.Itoa(i))
				line = append(line, row...)
				if err := w.Write(line); err != nil {
					return err
				}
			}
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}

func formatComplex(v complex128) string {
	return strconv.FormatComplex(v, 'g', -1, 128)
}
