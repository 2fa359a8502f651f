package asset_shrinker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

func BytesSize(size int) string {
	if size > GB {
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	}
	if size > MB {
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	}
	if size > KB {
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	}
	return fmt.Sprintf("%.2f B", float64(size))
}

// kilobytes is the unit every per-file report uses.
func kilobytes(size int) string {
	return fmt.Sprintf("%.2f KB", float64(size)/KB)
}

// SavedPercentage is how much smaller after is than before.
func SavedPercentage(before, after int) float64 {
	if before <= 0 {
		return 0
	}
	return (1 - float64(after)/float64(before)) * 100
}

func InitProcessorData(opts Options, cfg *Config) (*Processor, error) {
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	probe, err := LookupProbe(cfg.Probe)
	if err != nil {
		return nil, err
	}
	if opts.Butteraugli && !ButteraugliAvailable() {
		return nil, ErrButteraugliUnavailable
	}
	assets := make([]AssetFile, len(cfg.Assets))
	for i, asset := range cfg.Assets {
		assets[i] = AssetFile{Asset: asset, Butteraugli: -1}
	}
	return &Processor{
		Options:  opts,
		Config:   cfg,
		Assets:   assets,
		searcher: NewSearcher(cfg.Search, probe),
	}, nil
}

// change mutates asset state under the processor lock and notifies the UI.
func (app *Processor) change(ui UI, fn func()) {
	app.lock.Lock()
	fn()
	app.lock.Unlock()
	ui.Update()
}

func (app *Processor) fail(ui UI, asset *AssetFile, err error) {
	app.change(ui, func() {
		asset.Stage = ProcessingError
		asset.Error = err
	})
}

// ProcessAsset compresses one asset. Errors are recorded on the asset, never
// returned, so the caller can carry on with the next one.
func ProcessAsset(ctx context.Context, app *Processor, asset *AssetFile, ui UI) {
	if asset.Stage != Waiting {
		return
	}
	log := zerolog.Ctx(ctx).With().Str("asset", asset.Input).Logger()
	ctx = log.WithContext(ctx)

	request := ProcessingRequest{
		InputPath:  filepath.Join(app.Config.PublicDir, asset.Input),
		OutputPath: filepath.Join(app.Config.PublicDir, asset.Output),
		Target:     asset,
	}

	inputFileInfo, err := os.Stat(request.InputPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Msg("Skipping, file does not exist")
		app.change(ui, func() { asset.Stage = Missing })
		return
	} else if err != nil {
		log.Err(err).Msg("Can't access input file")
		app.fail(ui, asset, fmt.Errorf("Can't access input file: %w", err))
		return
	}

	app.change(ui, func() {
		asset.Stage = ProcessingInProgress
		asset.Size = int(inputFileInfo.Size())
		asset.StartTime = time.Now()
	})
	log.Info().
		Str("path", request.InputPath).
		Str("size", kilobytes(asset.Size)).
		Str("target", kilobytes(asset.Budget())).
		Msg("Original file")

	if !app.DryRun {
		backupPath, created, err := backupFile(request.InputPath, app.Config.BackupSuffix)
		if err != nil {
			log.Err(err).Msg("Backup failed")
			app.fail(ui, asset, err)
			return
		}
		if created {
			log.Info().Str("backup", backupPath).Msg("Backed up original file")
		}
		app.change(ui, func() { asset.BackupPath = backupPath })
	}

	if err = ShrinkAsset(ctx, app, request); err != nil {
		log.Err(err).Msg("Failed to compress image")
		app.fail(ui, asset, err)
		return
	}

	app.change(ui, func() {
		asset.Stage = ProcessingSuccess
		asset.Error = nil
	})

	evt := log.Info().
		Str("size", kilobytes(asset.ShrunkSize)).
		Str("saved", fmt.Sprintf("%.1f%%", SavedPercentage(asset.Size, asset.ShrunkSize))).
		Int("quality", asset.Quality).
		Int("attempts", asset.Attempts).
		Str("psnr", fmt.Sprintf("%.1f dB", asset.PSNR))
	if asset.Resized {
		evt = evt.Str("dimensions", fmt.Sprintf("%dx%d", asset.Width, asset.Height))
	}
	if asset.Butteraugli >= 0 {
		evt = evt.Float64("butteraugli", asset.Butteraugli)
	}
	if app.DryRun {
		evt.Msg("Compression would succeed (dry run)")
	} else {
		evt.Str("path", request.OutputPath).Msg("Compression succeeded")
	}
}

// ShrinkAsset decodes the input, searches for an output that fits the budget
// and writes it.
func ShrinkAsset(ctx context.Context, app *Processor, request ProcessingRequest) error {
	asset := request.Target
	img, mediaType, err := DecodeFile(request.InputPath)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().
		Stringer("type", mediaType).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Decoded image")

	result, err := app.searcher.FitToBudget(ctx, img, asset.Size, asset.Budget())
	if err != nil {
		return err
	}

	psnr := PSNR(result.Candidate, result.Output, 0)
	distance := -1.0
	if app.Butteraugli {
		distance, err = Butteraugli(result.Candidate, result.Output)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to compute butteraugli distance")
			distance = -1
		}
	}

	if !app.DryRun {
		if err = writeOutput(request.OutputPath, result.Data); err != nil {
			return err
		}
		outFileInfo, err := os.Stat(request.OutputPath)
		if err != nil {
			return fmt.Errorf("could not confirm output file written: %w", err)
		}
		if int(outFileInfo.Size()) > asset.Budget() {
			return fmt.Errorf("output file is %s, over the %s budget", kilobytes(int(outFileInfo.Size())), kilobytes(asset.Budget()))
		}
	}

	app.change(nopUI{}, func() {
		asset.Type = mediaType
		asset.ShrunkSize = len(result.Data)
		asset.Width, asset.Height = result.Width, result.Height
		asset.Resized = result.Resized
		asset.Quality = result.Quality
		asset.Scale = result.Scale
		asset.Attempts = result.Attempts
		asset.PSNR = psnr
		asset.Butteraugli = distance
	})
	return nil
}

func (stats *ShrunkStats) accumulate(asset *AssetFile) {
	stats.Total++
	switch asset.Stage {
	case ProcessingSuccess:
		stats.Count++
		stats.SizeBefore += asset.Size
		stats.SizeAfter += asset.ShrunkSize
	case ProcessingError:
		stats.Failed++
	case Missing:
		stats.Missing++
	}
}

// AllSucceeded reports whether every asset that exists was compressed.
func (stats *ShrunkStats) AllSucceeded() bool {
	return stats.Failed == 0
}

func (stats *ShrunkStats) ShrunkString() string {
	return fmt.Sprintf("Compressed %d/%d files [%s] -> [%s] (%.1f%% saved)",
		stats.Count, stats.Total, BytesSize(stats.SizeBefore), BytesSize(stats.SizeAfter),
		SavedPercentage(stats.SizeBefore, stats.SizeAfter))
}

func (app *Processor) Stats() (stats ShrunkStats) {
	app.lock.Lock()
	defer app.lock.Unlock()
	for index := range app.Assets {
		stats.accumulate(&app.Assets[index])
	}
	return
}

// StartProcessing goes through the assets in order, one at a time.
func StartProcessing(ctx context.Context, app *Processor, ui UI) ShrunkStats {
	log := zerolog.Ctx(ctx)
	log.Info().
		Str("dir", app.Config.PublicDir).
		Str("probe", app.searcher.Probe.Name).
		Int("assets", len(app.Assets)).
		Msg("Compressing images")

	for index := range app.Assets {
		if ctx.Err() != nil {
			log.Warn().Msg("Interrupted, not processing remaining files")
			break
		}
		ProcessAsset(ctx, app, &app.Assets[index], ui)
	}

	stats := app.Stats()
	log.Info().
		Int("succeeded", stats.Count).
		Int("failed", stats.Failed).
		Int("missing", stats.Missing).
		Msg(stats.ShrunkString())
	return stats
}

func DoProcess(ctx context.Context, app *Processor) ShrunkStats {
	return StartProcessing(ctx, app, nopUI{})
}
