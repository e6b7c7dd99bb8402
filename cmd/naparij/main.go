package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"

	"naparij/internal/models"
	"naparij/pkg/bridge"
	"naparij/pkg/config"
	"naparij/pkg/ij"
	"naparij/pkg/layerio"
	"naparij/pkg/napari"
	"naparij/pkg/threshold"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "naparij.yaml", "YAML configuration file")
	imagePath := flag.String("image", "", "TIFF image to fetch into the viewer as the active image")
	labels := flag.Bool("labels", false, "Fetch the image as a labels layer")
	voxel := flag.String("voxel", "1,1,1", "Voxel size as z,y,x for -image")
	unit := flag.String("unit", "pixel", "Calibration unit for -image")
	loadDir := flag.String("load", "", "Folder of saved layers to load")
	saveDir := flag.String("save", "", "Folder to save the viewer layers to")
	pointsPath := flag.String("points", "", "CSV results table with X,Y,Z and a confidence column")
	cmName := flag.String("colormap", "viridis", "Colormap for points")
	low := flag.Float64("low", 0, "Lower confidence bound (used with -high)")
	high := flag.Float64("high", -1, "Upper confidence bound; below -low keeps the full range")
	exportPath := flag.String("export", "", "CSV file receiving the surviving points")
	pairsPath := flag.String("pairs", "", "CSV results table with two x,y,z groups per row")
	pick := flag.String("pick", "", "Report the point nearest to z,y,x after filtering")
	cycle := flag.Int("cycle", 0, "Cycle the points colormap this many times")
	screenshot := flag.Bool("screenshot", false, "Send a render of the first image layer back as an RGB image")
	settingsDir := flag.String("settings", "", "Settings folder (default ~/.napari-j)")
	fijiPath := flag.String("fiji", "", "Store this FIJI installation path in the settings")
	makeDefault := flag.Bool("make-default", false, "Make the current settings the default")
	resetSettings := flag.Bool("reset-settings", false, "Restore the settings from the default")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	slog.SetDefault(logger)

	if *fijiPath != "" || *makeDefault || *resetSettings {
		if err := updateSettings(*settingsDir, *fijiPath, *makeDefault, *resetSettings); err != nil {
			log.Fatalf("Failed to update settings: %v", err)
		}
	}

	rt := ij.NewMemRuntime()
	viewer := napari.NewModel()
	engine := threshold.NewEngine(threshold.HistogramFunc(func(h threshold.Histogram) {
		logger.Debug("Histogram", "bins", len(h.Counts), "low", h.Low, "high", h.High)
	}), logger)
	engine.Attach(viewer.Layers())
	b := bridge.New(rt, viewer, engine, bridgeOptions(cfg), logger)

	cal := models.Calibration{X: 1, Y: 1, Z: 1}

	if *imagePath != "" {
		img, err := ij.OpenTIFF(*imagePath)
		if err != nil {
			log.Fatalf("Failed to open image: %v", err)
		}
		var vs models.VoxelSize
		if _, err := fmt.Sscanf(*voxel, "%g,%g,%g", &vs.Z, &vs.Y, &vs.X); err != nil {
			log.Fatalf("Invalid -voxel %q: %v", *voxel, err)
		}
		img.Cal = ij.MemCalibration{PixelDepth: vs.Z, PixelHeight: vs.Y, PixelWidth: vs.X, UnitName: *unit}
		cal = models.Calibration{X: vs.X, Y: vs.Y, Z: vs.Z}
		rt.Open(img)

		fetch := b.GetImage
		if *labels {
			fetch = b.GetLabels
		}
		layers, err := fetch()
		if err != nil {
			log.Fatalf("Failed to fetch image: %v", err)
		}
		fmt.Printf("Fetched %d layer(s) from %s\n", len(layers), *imagePath)
	}

	if *loadDir != "" {
		layers, err := layerio.Load(*loadDir, viewer, logger)
		if err != nil {
			log.Fatalf("Failed to load layers: %v", err)
		}
		if m, err := layerio.ReadManifest(*loadDir); err == nil {
			cal = m.Calibration
		}
		fmt.Printf("Loaded %d layer(s) from %s\n", len(layers), *loadDir)
	}

	if *pointsPath != "" {
		name, err := openTable(rt.Store, *pointsPath)
		if err != nil {
			log.Fatalf("Failed to read points table: %v", err)
		}
		points, err := b.DisplayPoints(name, *cmName)
		if err != nil {
			log.Fatalf("Failed to display points: %v", err)
		}
		state := engine.Lookup(points)
		if *high >= *low && state != nil {
			state.SetBounds(*low, *high)
		}
		if state != nil {
			fmt.Printf("Points %q: %d total, %d suppressed, window [%g, %g]\n",
				name, len(points.Coords), state.Suppressed(), state.Low, state.High)
		}

		if *pick != "" && state != nil {
			var q napari.Point
			if _, err := fmt.Sscanf(*pick, "%g,%g,%g", &q[0], &q[1], &q[2]); err != nil {
				log.Fatalf("Invalid -pick %q: %v", *pick, err)
			}
			if p, ok := state.Pick(q); ok {
				fmt.Printf("Nearest point %d at distance %g: confidence %g, suppressed %t\n",
					p.Index, p.Distance, p.Confidence, p.Suppressed)
			}
		}

		for i := 0; i < *cycle; i++ {
			if err := b.CycleColormap(points); err != nil {
				log.Fatalf("Failed to cycle colormap: %v", err)
			}
		}
		if *cycle > 0 {
			fmt.Printf("Points colormap: %s\n", points.FaceColormap.Name)
		}

		if *exportPath != "" {
			rows, err := b.PointsToIJ(points)
			if err != nil {
				log.Fatalf("Failed to export points: %v", err)
			}
			if err := saveTable(rt.Store, name, *exportPath); err != nil {
				log.Fatalf("Failed to write %s: %v", *exportPath, err)
			}
			fmt.Printf("Wrote %d point(s) to %s\n", rows, *exportPath)
		}
	}

	if *pairsPath != "" {
		name, err := openTable(rt.Store, *pairsPath)
		if err != nil {
			log.Fatalf("Failed to read pairs table: %v", err)
		}
		shapes, err := b.GetPairs(name)
		if err != nil {
			log.Fatalf("Failed to display pairs: %v", err)
		}
		fmt.Printf("Pairs %q: %d line(s)\n", name, len(shapes.Lines))
	}

	if *screenshot {
		if err := renderCanvas(viewer); err != nil {
			log.Fatalf("Failed to render viewer: %v", err)
		}
		img, err := b.Screenshot()
		if err != nil {
			log.Fatalf("Failed to send screenshot: %v", err)
		}
		d := img.Dimensions()
		fmt.Printf("Screenshot %q: %dx%d\n", img.ShortTitle(), d.Width(), d.Height())
	}

	if *saveDir != "" {
		m, err := layerio.Save(*saveDir, viewer, cal, logger)
		if err != nil {
			log.Fatalf("Failed to save layers: %v", err)
		}
		fmt.Printf("Saved %d layer(s) to %s\n", len(m.Layers), *saveDir)
	}

	if flag.NFlag() == 0 {
		flag.Usage()
		os.Exit(1)
	}
}

// renderCanvas stands in for the viewer's renderer: the first plane of the
// first image layer becomes the canvas
func renderCanvas(viewer *napari.Model) error {
	for _, l := range viewer.Layers().All() {
		img, ok := l.(*napari.Image)
		if !ok || img.Data == nil {
			continue
		}
		lo, hi := img.Data.MinMax()
		frame, err := img.Data.ExtractPlane(0, lo, hi)
		if err != nil {
			return err
		}
		viewer.Canvas = frame
		return nil
	}
	return nil
}

func updateSettings(dir, fijiPath string, makeDefault, reset bool) error {
	store, err := config.NewSettingsStore(dir, config.NotifierFunc(func(title, message string) {
		fmt.Printf("%s %s\n", title, message)
	}))
	if err != nil {
		return err
	}
	if err := store.Ensure(); err != nil {
		return err
	}
	if err := store.Load(); err != nil {
		return err
	}
	if fijiPath != "" {
		store.SetFIJIPath(fijiPath)
		if err := store.Save(); err != nil {
			return err
		}
		if !store.IsLimeSegInstalled() {
			slog.Warn("LimeSeg not found in FIJI installation", "path", fijiPath)
		}
	}
	if makeDefault {
		store.MakeDefault()
	}
	if reset {
		store.Reset()
	}
	return nil
}

func bridgeOptions(cfg *config.Config) bridge.Options {
	opts := bridge.DefaultOptions()
	opts.ChannelColors = cfg.Bridge.ChannelColors
	opts.PointSize = cfg.Bridge.PointSize
	opts.Colormaps = cfg.Bridge.Colormaps
	opts.ConfidenceColumns = cfg.Bridge.ConfidenceColumns
	opts.ScreenshotMaxWidth = cfg.Bridge.ScreenshotMaxWidth
	return opts
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stderr
	if cfg.Log.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// openTable reads a CSV into the table store under the file's base name
func openTable(store *ij.MemTableStore, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	t, err := ij.ReadCSV(f)
	if err != nil {
		return "", err
	}
	name := filepath.Base(path)
	store.Put(name, t)
	return name, nil
}

func saveTable(store *ij.MemTableStore, name, path string) error {
	t, ok := store.Get(name).(*ij.MemTable)
	if !ok {
		return fmt.Errorf("table %q is not open", name)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := ij.WriteCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}
