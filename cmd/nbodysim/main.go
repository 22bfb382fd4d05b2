package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/analysis"
	"github.com/san-kum/nbodysim/internal/automation"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/export"
	"github.com/san-kum/nbodysim/internal/initial"
	"github.com/san-kum/nbodysim/internal/logging"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
	"github.com/san-kum/nbodysim/internal/storage"
	"github.com/san-kum/nbodysim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	outPath    string
	softening  float64
	gravConst  float64
	seed       int64
	workers    int
	configFile string
	preset     string
	save       bool
	saveConfig string

	// plot and analyze
	body       int
	field      string
	portrait   string
	sampleDt   float64
	lyapunov   bool
	sweepDts   string
	plotHeight int

	// exports
	jsonOut   string
	svgOut    string
	sqliteOut string
	svgWidth  int
	svgHeight int

	// montecarlo
	trials       int
	perturbation float64
	maxDrift     float64
	parallel     int
)

// main registers the nbodysim commands and executes the root command,
// exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "nbodysim",
		Short:         "gravitational n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunMenu(config.DefaultConfig(), newLogger(), saveCanvas)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodysim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run [init] [dt] [steps] [dump_every]",
		Short: "run simulation and write snapshots",
		Long: `Run a simulation. init is a preset name, a particle count for random
synthesis, or the path of a snapshot file whose first line is the initial state.`,
		Args: cobra.MaximumNArgs(4),
		RunE: runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&outPath, "out", config.DefaultOut, "snapshot output file")
	runCmd.Flags().BoolVar(&save, "save", false, "also save the run in the data directory")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective configuration to this yaml file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list run presets and initial states",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run]",
		Short: "export run metadata and frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVar(&jsonOut, "out", "", "output file (default stdout)")
	exportCmd.Flags().Float64Var(&sampleDt, "sample-dt", config.DefaultDt, "time between frames of a raw snapshot file")

	plotCmd := &cobra.Command{
		Use:   "plot [run]",
		Short: "plot a body quantity over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&body, "body", 1, "body index")
	plotCmd.Flags().StringVar(&field, "field", "r", "quantity (x|y|z|vx|vy|vz|fx|fy|fz|r|speed|force)")
	plotCmd.Flags().StringVar(&portrait, "portrait", "", "plot field against this quantity instead of time")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")
	plotCmd.Flags().Float64Var(&sampleDt, "sample-dt", config.DefaultDt, "time between frames of a raw snapshot file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run]",
		Short: "orbit and conservation analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&sampleDt, "sample-dt", config.DefaultDt, "time between frames of a raw snapshot file")
	analyzeCmd.Flags().BoolVar(&lyapunov, "lyapunov", false, "estimate the largest lyapunov exponent")
	analyzeCmd.Flags().StringVar(&sweepDts, "sweep", "", "comma separated time steps to compare")

	svgCmd := &cobra.Command{
		Use:   "svg [run]",
		Short: "render trajectories to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVar(&svgOut, "out", "orbits.svg", "output file")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	sqliteCmd := &cobra.Command{
		Use:   "sqlite [run]",
		Short: "export frames to a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSQLite,
	}
	sqliteCmd.Flags().StringVar(&sqliteOut, "out", "frames.db", "database file")

	liveCmd := &cobra.Command{
		Use:   "live [init] [dt] [steps] [dump_every]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(4),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scenario file and save every run",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [init] [dt] [steps] [dump_every]",
		Short: "repeat a run with perturbed initial positions",
		Args:  cobra.MaximumNArgs(4),
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 16, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-3, "relative position perturbation")
	monteCarloCmd.Flags().Float64Var(&maxDrift, "max-drift", 0.1, "energy drift above which a trial is unstable")
	monteCarloCmd.Flags().IntVar(&parallel, "parallel", 4, "concurrent trials")

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, exportCmd, plotCmd, analyzeCmd, svgCmd, sqliteCmd, liveCmd, batchCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&softening, "soft", physics.DefaultSoftening, "softening length (m)")
	cmd.Flags().Float64Var(&gravConst, "G", physics.DefaultG, "gravitational constant")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel force workers (0 or 1 is serial)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func newLogger() logging.Logger {
	return logging.New(os.Stderr, logLevel)
}

// buildConfig layers the preset, the config file, changed flags and finally
// positional arguments.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", config.ErrInvalid, preset, config.ListPresets())
		}
	}

	// Load config file if specified (overrides preset)
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("soft") {
		cfg.Softening = softening
	}
	if flags.Changed("G") {
		cfg.G = gravConst
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if f := flags.Lookup("out"); f != nil && f.Changed {
		cfg.Out = outPath
	}

	if len(args) > 0 {
		cfg.Init = args[0]
	}
	if len(args) > 1 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: dt %q is not a number", config.ErrInvalid, args[1])
		}
		cfg.Dt = v
	}
	if len(args) > 2 {
		v, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("%w: steps %q is not an integer", config.ErrInvalid, args[2])
		}
		cfg.Steps = v
	}
	if len(args) > 3 {
		v, err := strconv.Atoi(args[3])
		if err != nil {
			return nil, fmt.Errorf("%w: dump_every %q is not an integer", config.ErrInvalid, args[3])
		}
		cfg.DumpEvery = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger()

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	// The init selector may name cfg.Out itself, so it is read in full
	// before the output is truncated.
	sys, err := automation.LoadInitial(cfg)
	if err != nil {
		return err
	}
	n := sys.Len()

	f, err := os.Create(cfg.Out)
	if err != nil {
		return err
	}
	defer f.Close()
	w := snapshot.NewWriter(f)
	sinks := []dynamo.Sink{w}

	var run *storage.Run
	if save {
		run, err = storage.New(dataDir).NewRun(cfg.Init)
		if err != nil {
			return err
		}
		defer run.Close()
		sinks = append(sinks, run)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: dt=%g steps=%d dump every %d\n", cfg.Init, cfg.Dt, cfg.Steps, cfg.DumpEvery)
	result, err := automation.SimulateSystem(ctx, cfg, sys, log, sinks...)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("particles: %d\n", n)
	fmt.Printf("steps: %d, dumps: %d -> %s\n", result.Steps, result.Dumps, cfg.Out)
	fmt.Printf("simulated time: %s\n", viz.FormatSimTime(result.Time))

	if run != nil {
		meta := storage.NewMetadata(cfg.Init, n, cfg.Params(), result)
		if err := run.Finish(meta); err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", run.ID)
	}

	printMetrics(result)
	return nil
}

func printMetrics(result *dynamo.Result) {
	fmt.Println("\nmetrics:")
	fmt.Printf("  energy_drift: %.6e\n", result.EnergyDrift)
	fmt.Printf("  momentum_drift: %.6e\n", result.MomentumDrift)
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6e\n", name, val)
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tINIT\tDT\tSTEPS\tDUMP")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%d\n", name, p.Init, p.Dt, p.Steps, p.DumpEvery)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\ninitial states:")
	for _, name := range initial.ListPresets() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINIT\tN\tTIME\tDT\tSTEPS\tDUMPS\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%gs\t%d\t%d\t%.2e\n",
			run.ID,
			run.Init,
			run.Particles,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dt,
			run.Steps,
			run.Dumps,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

// loadRun resolves a saved run ID, or failing that a snapshot file path.
func loadRun(arg string) (storage.RunMetadata, []snapshot.Frame, error) {
	st := storage.New(dataDir)
	if meta, err := st.Load(arg); err == nil {
		frames, err := st.LoadFrames(arg)
		return *meta, frames, err
	}

	if _, err := os.Stat(arg); err != nil {
		return storage.RunMetadata{}, nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, arg)
	}
	frames, err := snapshot.ReadAllFile(arg)
	if err != nil {
		return storage.RunMetadata{}, nil, err
	}

	meta := storage.RunMetadata{
		ID:        filepath.Base(arg),
		Init:      arg,
		Dt:        sampleDt,
		DumpEvery: 1,
		Steps:     len(frames) - 1,
		Dumps:     len(frames),
	}
	if len(frames) > 0 {
		meta.Particles = frames[0].System.Len()
	}
	return meta, frames, nil
}

func frameInterval(meta storage.RunMetadata) float64 {
	return meta.Dt * float64(meta.DumpEvery)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if jsonOut != "" {
		if err := storage.ExportJSONFile(jsonOut, meta, frames); err != nil {
			return err
		}
		fmt.Printf("exported %d frames to %s\n", len(frames), jsonOut)
		return nil
	}
	return storage.ExportJSON(os.Stdout, meta, frames)
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	yField, err := analysis.ParseField(field)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("init: %s\n", meta.Init)
	fmt.Printf("frames: %d\n\n", len(frames))

	if portrait != "" {
		xField, err := analysis.ParseField(portrait)
		if err != nil {
			return err
		}
		p, err := analysis.NewPortrait(frames, body, xField, yField)
		if err != nil {
			return err
		}
		fmt.Printf("body %d: %s vs %s\n\n", body, yField, xField)
		fmt.Println(p.ASCII(72, plotHeight*2))
		return nil
	}

	data, err := analysis.Series(frames, body, yField)
	if err != nil {
		return err
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("body %d %s over %s", body, yField, viz.FormatSimTime(frameInterval(meta)*float64(len(frames)-1)))),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	interval := frameInterval(meta)

	summaries, err := analysis.Summarize(frames, interval)
	if err != nil {
		return err
	}

	fmt.Printf("orbit analysis: %s\n", meta.ID)
	fmt.Printf("init: %s, frames: %d, frame interval: %s\n\n", meta.Init, len(frames), viz.FormatSimTime(interval))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMASS\tR_MIN\tR_MAX\tMEAN_SPEED\tPERIOD\tSPECTRAL\tRETURN")
	for _, s := range summaries {
		radius, err := analysis.Series(frames, s.Body, analysis.FieldR)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%.3e\t%.3e\t%.3e\t%.3e\t%s\t%s\t%s\n",
			s.Body, s.Mass, s.MinRadius, s.MaxRadius, s.MeanSpeed,
			formatPeriod(s.Period),
			formatPeriod(analysis.DominantPeriod(radius, interval)),
			formatRatio(s.ReturnError),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !lyapunov && sweepDts == "" {
		return nil
	}

	first := frames[0].System.Clone()
	params := dynamo.DefaultParams()
	if meta.G != 0 {
		params.G = meta.G
		params.Softening = meta.Softening
	}

	if lyapunov {
		steps := meta.Steps
		if steps <= 0 {
			steps = len(frames) - 1
		}
		dt := meta.Dt
		if dt == 0 {
			dt = interval
		}
		lambda, err := analysis.LyapunovExponent(first.Clone(), physics.NewGravity(params.G, params.Softening), dt, steps, 1e-6)
		if err != nil {
			return err
		}
		fmt.Printf("\nlargest lyapunov exponent: %.4e 1/s\n", lambda)
	}

	if sweepDts != "" {
		dts, err := parseFloats(sweepDts)
		if err != nil {
			return err
		}
		duration := interval * float64(len(frames)-1)

		ctx, cancel := signalContext()
		defer cancel()
		points, err := analysis.DtSweep(ctx, first, params, dts, duration)
		if err != nil {
			return err
		}

		fmt.Printf("\ntime step sweep over %s:\n", viz.FormatSimTime(duration))
		fmt.Printf("%-12s  %-10s  %-12s  %-12s\n", "dt", "steps", "energy_drift", "momentum")
		for _, p := range points {
			fmt.Printf("%-12g  %-10d  %12.4e  %12.4e\n", p.Dt, p.Steps, p.EnergyDrift, p.MomentumDrift)
		}
	}

	return nil
}

func formatPeriod(p float64) string {
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return "-"
	}
	return viz.FormatSimTime(p)
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2e", v)
}

func parseFloats(list string) ([]float64, error) {
	parts := strings.Split(list, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	svg := export.TrajectoriesToSVG(frames, svgWidth, svgHeight)
	if err := export.WriteSVG(svgOut, svg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func exportSQLite(cmd *cobra.Command, args []string) error {
	_, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := storage.ExportSQLite(sqliteOut, frames); err != nil {
		return err
	}
	fmt.Printf("exported %d frames to %s\n", len(frames), sqliteOut)
	return nil
}

// saveCanvas writes the live canvas as an SVG in the working directory.
func saveCanvas(c *viz.Canvas, step int) (string, error) {
	name := fmt.Sprintf("nbodysim_%d_%d.svg", step, time.Now().Unix())
	if err := export.WriteSVG(name, export.CanvasToSVG(c, 4)); err != nil {
		return "", err
	}
	return name, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	log := logging.NoOp{}

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(args) == 0 && preset == "" && configFile == "" {
		return viz.RunMenu(cfg, log, saveCanvas)
	}

	src, err := cfg.Source()
	if err != nil {
		return err
	}
	result, err := viz.Run(viz.Options{
		Source:   src,
		Params:   cfg.Params(),
		Logger:   log,
		Snapshot: saveCanvas,
	})
	if err != nil {
		return err
	}
	if result != nil {
		printMetrics(result)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d runs\n", sc.Name, len(sc.Runs))
	metas, err := automation.RunScenario(ctx, sc, storage.New(dataDir), newLogger())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINIT\tSTEPS\tDUMPS\tENERGY_DRIFT")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2e\n", m.ID, m.Init, m.Steps, m.Dumps, m.EnergyDrift)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("monte carlo: %d trials of %s, perturbation %g\n", trials, cfg.Init, perturbation)
	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         *cfg,
		Perturbation: perturbation,
		Trials:       trials,
		Seed:         cfg.Seed,
		MaxDrift:     maxDrift,
		Parallel:     parallel,
	})
	if err != nil {
		return err
	}

	worst := 0.0
	for _, r := range results {
		if r.EnergyDrift > worst {
			worst = r.EnergyDrift
		}
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("stable: %d, unstable: %d, worst energy drift: %.3e\n", stable, unstable, worst)
	return nil
}
