// Command twinlab inserts twin lamellae into a labelled microstructure. The input is
// either a synthetic Voronoi microstructure or one loaded from the SQLite store; the
// result can be stored back alongside a record of the run and rendered as reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/twinlab/internal/config"
	"github.com/banshee-data/twinlab/internal/region"
	"github.com/banshee-data/twinlab/internal/report"
	"github.com/banshee-data/twinlab/internal/storage/sqlite"
	"github.com/banshee-data/twinlab/internal/synth"
	"github.com/banshee-data/twinlab/internal/timeutil"
	"github.com/banshee-data/twinlab/internal/twin"
	"github.com/banshee-data/twinlab/internal/version"
	"github.com/banshee-data/twinlab/internal/voxel"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type options struct {
	configPath string
	dbPath     string
	loadID     string
	list       bool
	name       string
	seed       string
	outDir     string
	size       string
	regions    int
	verbose    bool
	trace      bool

	// clock times the run and stamps stored rows. Nil means timeutil.RealClock.
	clock timeutil.Clock
}

func parseFlags(fs *flag.FlagSet, args []string) (options, bool, error) {
	var o options
	showVersion := fs.Bool("version", false, "Print version information and exit")
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file (defaults apply when empty)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database for microstructures and runs (nothing is stored when empty)")
	fs.StringVar(&o.loadID, "load", "", "Load the source microstructure with this id from -db instead of synthesising one")
	fs.BoolVar(&o.list, "list", false, "List stored microstructures in -db and exit")
	fs.StringVar(&o.name, "name", "voronoi", "Name recorded for the result and used for report file names")
	fs.StringVar(&o.seed, "seed", "", "Override the configured random seed")
	fs.StringVar(&o.outDir, "out", "", "Write PNG/HTML/text reports into this directory (overrides output_dir)")
	fs.StringVar(&o.size, "size", "32,32,32", "Synthetic grid dimensions as nx,ny,nz")
	fs.IntVar(&o.regions, "regions", 12, "Number of synthetic regions")
	fs.BoolVar(&o.verbose, "v", false, "Log engine phases to stderr")
	fs.BoolVar(&o.trace, "trace", false, "Log per-region planes to stderr")
	if err := fs.Parse(args); err != nil {
		return o, false, err
	}
	if o.loadID != "" && o.dbPath == "" {
		return o, false, errors.New("-load requires -db")
	}
	if o.list && o.dbPath == "" {
		return o, false, errors.New("-list requires -db")
	}
	return o, *showVersion, nil
}

func parseDims(s string) ([3]int, error) {
	var dims [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return dims, fmt.Errorf("size %q: want nx,ny,nz", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return dims, fmt.Errorf("size %q: %w", s, err)
		}
		dims[i] = v
	}
	return dims, nil
}

func loadConfig(o options) (*config.TwinConfig, error) {
	cfg := config.DefaultTwinConfig()
	if o.configPath != "" {
		loaded, err := config.LoadTwinConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if o.seed != "" {
		v, err := strconv.ParseUint(o.seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("-seed: %w", err)
		}
		cfg.Seed = &v
	}
	if o.outDir != "" {
		cfg.OutputDir = &o.outDir
	}
	return cfg, nil
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	clock := o.clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	var store *sqlite.Store
	if o.dbPath != "" {
		store, err = sqlite.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetClock(clock)
	}

	if (o.list || o.loadID != "") && store == nil {
		return errors.New("-list and -load require -db")
	}
	if o.list {
		return listMicrostructures(ctx, store, stdout)
	}

	src := twin.NewSource(cfg.GetSeed())
	var (
		g        *voxel.Grid
		tbl      *region.Table
		sourceID string
	)
	if o.loadID != "" {
		m, err := store.LoadMicrostructure(ctx, o.loadID)
		if err != nil {
			return err
		}
		g, tbl, sourceID = m.Grid, m.Regions, m.ID
		log.Printf("loaded microstructure %s (%q, %v)", m.ID, m.Name, g.Dims)
	} else {
		dims, err := parseDims(o.size)
		if err != nil {
			return err
		}
		opts := synth.DefaultOptions()
		opts.Dims = dims
		opts.Regions = o.regions
		if g, tbl, err = synth.Voronoi(opts, src); err != nil {
			return err
		}
		if store != nil {
			sourceID, err = store.SaveMicrostructure(ctx, &sqlite.Microstructure{
				Name:    o.name + "-source",
				Grid:    g.Clone(),
				Regions: tbl.Clone(),
			})
			if err != nil {
				return err
			}
		}
	}

	start := clock.Now()
	eng := twin.New(cfg.EngineConfig())
	res, err := eng.Insert(g, tbl, src)
	if err != nil {
		return err
	}
	elapsed := clock.Since(start)

	if cfg.GetRecomputeStats() {
		if err := tbl.Recompute(g); err != nil {
			return err
		}
	}

	summary, err := report.Summarize(g, res)
	if err != nil {
		return err
	}

	if store != nil {
		resultID, err := store.SaveMicrostructure(ctx, &sqlite.Microstructure{Name: o.name, Grid: g, Regions: tbl})
		if err != nil {
			return err
		}
		err = store.InsertRun(ctx, &sqlite.Run{
			SourceID:          sourceID,
			ResultID:          resultID,
			Seed:              cfg.GetSeed(),
			ThicknessFraction: cfg.GetThicknessFraction(),
			ScanMode:          cfg.GetScanMode().String(),
			TwinID:            res.TwinID,
			TwinVoxels:        res.TwinVoxels,
			TableLen:          res.TableLen,
		})
		if err != nil {
			return err
		}
		log.Printf("stored result %s (source %s)", resultID, sourceID)
	}

	if dir := cfg.GetOutputDir(); dir != "" {
		paths, err := report.WriteAll(dir, o.name, g, summary, report.SliceOptions{
			Z:      cfg.GetSliceZ(),
			Title:  o.name,
			TwinID: res.TwinID,
		})
		if err != nil {
			return err
		}
		for _, p := range paths {
			log.Printf("wrote %s", p)
		}
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "inserted twin %d into %d regions: %d voxels in %v\n",
		res.TwinID, len(res.Regions), res.TwinVoxels, elapsed.Round(time.Microsecond))
	return summary.WriteText(stdout)
}

func listMicrostructures(ctx context.Context, store *sqlite.Store, w io.Writer) error {
	list, err := store.ListMicrostructures(ctx)
	if err != nil {
		return err
	}
	for _, m := range list {
		created := time.Unix(0, m.CreatedUnixNanos).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s  %-24s %dx%dx%d  %s\n", m.ID, m.Name, m.Dims[0], m.Dims[1], m.Dims[2], created)
	}
	return nil
}

func main() {
	o, showVersion, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("twinlab: %v", err)
	}
	if showVersion {
		fmt.Printf("twinlab v%s (git SHA: %s, built: %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	var diag, trace io.Writer
	if o.verbose || o.trace {
		diag = os.Stderr
	}
	if o.trace {
		trace = os.Stderr
	}
	twin.SetLogWriters(os.Stderr, diag, trace)

	if err := run(context.Background(), o, os.Stdout); err != nil {
		log.Fatalf("twinlab: %v", err)
	}
}
