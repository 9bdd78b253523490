package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"seacatgo/pkg/config"
	"seacatgo/pkg/db"
	"seacatgo/pkg/exporter"
	"seacatgo/pkg/logging"
	"seacatgo/pkg/model"
	"seacatgo/pkg/probe"
	"seacatgo/pkg/store"
	"seacatgo/pkg/tables"
	"seacatgo/pkg/trace"
	"seacatgo/pkg/version"
)

const lastPlanKey = "last_plan"

type options struct {
	configPath string
	planPath   string
	outPath    string
	tracePath  string
	history    int
	show       string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/seacat.yaml", "Path to the config file")
	flag.StringVar(&opts.planPath, "plan", "", "Path to the mission plan (YAML, default: last exported plan)")
	flag.StringVar(&opts.outPath, "out", "", "Output mission file (default: <output_dir>/<plan id>.txt)")
	flag.StringVar(&opts.tracePath, "trace", "", "Write the vehicle trace to this .geojson or .shp file")
	flag.IntVar(&opts.history, "history", 0, "List the last N exports and exit")
	flag.StringVar(&opts.show, "show", "", "Print the mission file recorded under this export ID and exit")
	initConfig := flag.Bool("init-config", false, "Generate default config file and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if *initConfig {
		if err := config.GenerateDefault(opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", opts.configPath)
		return
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	appCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("SeaCat exporter started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if opts.history > 0 {
		return printHistory(ctx, st, opts.history, out)
	}
	if opts.show != "" {
		return showExport(ctx, st, opts.show, out)
	}

	planPath, err := resolvePlan(ctx, st, opts.planPath)
	if err != nil {
		return err
	}

	tpl, err := exporter.LoadTemplate(appCfg.Export.Template)
	if err != nil {
		return err
	}

	exp := exporter.New(loadTables(appCfg), tpl, exportOptions(appCfg))
	ext := exp.Extensions()[0]

	outPath, err := outputPath(opts, appCfg, ext)
	if err != nil {
		return err
	}

	results := probe.Run(ctx, startupProbes(appCfg, tpl, dbConn, filepath.Dir(outPath)))
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("pre-export checks failed: %w", err)
	}

	plan, err := model.LoadPlan(planPath)
	if err != nil {
		return err
	}
	if opts.outPath == "" {
		outPath = filepath.Join(appCfg.Export.OutputDir, planFileName(plan.ID, ext))
	}

	res, err := exp.ExportToFile(plan, outPath)
	if err != nil {
		return err
	}
	slog.Info("Mission file written", "format", exp.Name(), "plan", plan.ID, "path", outPath, "lines", res.Lines)

	tracePath := opts.tracePath
	if tracePath == "" && appCfg.Trace.Enabled {
		tracePath = strings.TrimSuffix(outPath, filepath.Ext(outPath)) + traceExt(appCfg.Trace.Format)
	}
	if tracePath != "" {
		if err := trace.Write(tracePath, res.Trace); err != nil {
			return fmt.Errorf("failed to write trace: %w", err)
		}
		slog.Info("Trace written", "path", tracePath, "points", len(res.Trace))
	}

	rec := &store.ExportRecord{
		PlanID:     plan.ID,
		Vehicle:    plan.Vehicle,
		Checksum:   res.Checksum,
		OutputPath: outPath,
		TracePath:  tracePath,
		Lines:      res.Lines,
		TurnRadius: res.TurnRadius,
		Outside:    res.Outside,
		Document:   res.Document,
	}
	if prev, err := st.FindByChecksum(ctx, res.Checksum); err == nil && prev != nil {
		slog.Info("Plan exported before", "id", prev.ID, "at", prev.CreatedAt)
	}
	if err := st.SaveExport(ctx, rec); err != nil {
		slog.Warn("Failed to record export", "error", err)
	}
	if abs, err := filepath.Abs(planPath); err == nil {
		planPath = abs
	}
	if err := st.SetState(ctx, lastPlanKey, planPath); err != nil {
		slog.Warn("Failed to persist last plan", "error", err)
	}
	if appCfg.DB.KeepExports > 0 {
		if n, err := dbConn.PruneExports(appCfg.DB.KeepExports); err != nil {
			slog.Warn("Failed to prune export history", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned export history", "deleted", n)
		}
	}

	fmt.Fprintf(out, "%s: %d lines, MD5 %s\n", outPath, res.Lines, res.Checksum)
	if res.Outside > 0 {
		fmt.Fprintf(out, "warning: %d positions outside the autonomy area\n", res.Outside)
	}
	return nil
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func startupProbes(appCfg *config.Config, tpl string, dbConn *db.DB, outDir string) []probe.Probe {
	res := appCfg.Export.Resources
	return []probe.Probe{
		{Name: "Template", Check: probe.TemplateCheck(tpl), Critical: true},
		{Name: "Active Table", Check: probe.TableCheck(res.Active, tables.ParseActive)},
		{Name: "Boolean Table", Check: probe.TableCheck(res.Booleans, tables.ParseBooleans)},
		{Name: "Model Table", Check: probe.TableCheck(res.Models, tables.ParseModels)},
		{Name: "Output Directory", Check: probe.WritableDirCheck(outDir), Critical: true},
		{Name: "History Database", Check: probe.DBCheck(dbConn)},
	}
}

func loadTables(appCfg *config.Config) *tables.Tables {
	res := appCfg.Export.Resources
	return tables.Load(tables.Sources{
		ActiveReplacement:  res.Active,
		BooleanReplacement: res.Booleans,
		ModelPayloads:      res.Models,
	})
}

func exportOptions(appCfg *config.Config) exporter.Options {
	c := appCfg.Export
	return exporter.Options{
		TurnRadius:       c.TurnRadius.Meters(),
		PayloadGap:       c.PayloadGap,
		ManeuverGap:      c.ManeuverGap,
		AcomsRepetitions: c.AcomsRepetitions,
		LowBatteryState:  c.LowBatteryState,
		SafeAltitude:     c.SafeAltitude,
		EmergencyEnd:     c.EmergencyEnd,
	}
}

// resolvePlan returns the plan path to export. Without -plan it falls back to
// the last exported plan; a recorded plan that has since vanished is forgotten.
func resolvePlan(ctx context.Context, st store.StateStore, path string) (string, error) {
	if path != "" {
		return path, nil
	}
	last, ok := st.GetState(ctx, lastPlanKey)
	if !ok {
		return "", errors.New("no plan given (use -plan)")
	}
	if _, err := os.Stat(last); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if derr := st.DeleteState(ctx, lastPlanKey); derr != nil {
				slog.Warn("Failed to forget last plan", "error", derr)
			}
		}
		return "", fmt.Errorf("last plan %s unavailable: %w", last, err)
	}
	slog.Info("Using last plan", "path", last)
	return last, nil
}

// outputPath returns the explicit -out path, or a placeholder inside the
// output directory until the plan ID is known.
func outputPath(opts options, appCfg *config.Config, ext string) (string, error) {
	if opts.outPath != "" {
		return opts.outPath, nil
	}
	if appCfg.Export.OutputDir == "" {
		return "", errors.New("no output path given and no output_dir configured")
	}
	return filepath.Join(appCfg.Export.OutputDir, "mission."+ext), nil
}

func planFileName(id, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, id)
	return name + "." + ext
}

func traceExt(format string) string {
	if strings.EqualFold(format, "shp") {
		return ".shp"
	}
	return ".geojson"
}

func printHistory(ctx context.Context, st store.ExportStore, n int, out io.Writer) error {
	recs, err := st.ListExports(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "no exports recorded")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s  %s  %-20s %-16s %5d lines  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.PlanID, r.Vehicle, r.Lines, r.OutputPath)
	}
	return nil
}

func showExport(ctx context.Context, st store.ExportStore, id string, out io.Writer) error {
	rec, err := st.GetExport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load export: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no export recorded with ID %s", id)
	}
	_, err = io.WriteString(out, rec.Document)
	return err
}
