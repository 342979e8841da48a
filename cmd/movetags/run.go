package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/pocketbase/dbx"
	"golang.org/x/sync/errgroup"

	"github.com/sonospy/movetags/conf"
	"github.com/sonospy/movetags/core/finalize"
	"github.com/sonospy/movetags/core/rollup"
	"github.com/sonospy/movetags/core/scanfeed"
	"github.com/sonospy/movetags/core/schema"
	"github.com/sonospy/movetags/core/sync"
	"github.com/sonospy/movetags/log"
	"github.com/sonospy/movetags/metrics"
	"github.com/sonospy/movetags/model"
	"github.com/sonospy/movetags/persistence"
)

func run(ctx context.Context, opts *runOptions) error {
	log.SetJSONFormat(opts.logFormat == "json")
	switch {
	case opts.verbose:
		log.SetLevel("debug")
	case opts.quiet:
		log.SetLevel("warn")
	default:
		log.SetLevel("info")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := conf.Load(opts.config, opts.theProcessing)
	if err != nil {
		return fmt.Errorf("loading %s: %w", opts.config, err)
	}

	source, err := persistence.Open(opts.source)
	if err != nil {
		return err
	}
	defer source.Close()

	dest := source
	if opts.dest != opts.source {
		dest, err = persistence.Open(opts.dest)
		if err != nil {
			return err
		}
		defer dest.Close()
	}

	if opts.regenerate {
		if err := schema.Regenerate(ctx, dest.DB()); err != nil {
			return fmt.Errorf("regenerating schema: %w", err)
		}
	} else {
		if err := schema.Bootstrap(ctx, dest.DB()); err != nil {
			return fmt.Errorf("bootstrapping schema: %w", err)
		}
	}

	wvlookup := persistence.NewWVLookupRepository(ctx, dest)
	for name, albumtype := range cfg.WVLookup {
		if err := wvlookup.Put(name, albumtype); err != nil {
			return fmt.Errorf("persisting wvlookup entry %q: %w", name, err)
		}
	}

	deps := wireDeps(ctx, cfg, dest, source)
	feed := scanfeed.New(ctx, source, opts.regenerate)

	g, gctx := errgroup.WithContext(ctx)
	metricsSrv := metrics.New(opts.metricsAddr)
	g.Go(func() error { return metricsSrv.Serve(gctx) })

	g.Go(func() error {
		defer stop()
		return processAll(gctx, opts, feed, deps)
	})

	return g.Wait()
}

// deps bundles every collaborator processAll needs, built once per run.
type deps struct {
	synchronizer *sync.Synchronizer
	finalizer    *finalize.Finalizer
	params       *persistence.ParamsRepository
}

func wireDeps(ctx context.Context, cfg *conf.Config, dest, source *dbx.DB) deps {
	tracks := persistence.NewTrackRepository(ctx, dest)
	albums := persistence.NewAlbumRepository(ctx, dest)
	albumsonly := persistence.NewAlbumsonlyRepository(ctx, dest)
	cross := persistence.NewCrossrefRepository(ctx, dest)
	artist := persistence.NewEntityRepository(ctx, dest, model.KindArtist)
	albumartist := persistence.NewEntityRepository(ctx, dest, model.KindAlbumartist)
	composer := persistence.NewEntityRepository(ctx, dest, model.KindComposer)
	genre := persistence.NewEntityRepository(ctx, dest, model.KindGenre)
	params := persistence.NewParamsRepository(ctx, dest)

	rollupSyncer := rollup.New(ctx, cfg, albums, albumsonly, cross)
	synchronizer := sync.New(ctx, cfg, tracks, albums, albumsonly, cross, artist, albumartist, composer, genre, rollupSyncer)
	finalizer := finalize.New(ctx, dest, source, params)
	return deps{synchronizer: synchronizer, finalizer: finalizer, params: params}
}

// processAll walks every pending scan batch in order, folding each into
// the target database and finalizing it before moving to the next. A
// batch's writes are not wrapped in a transaction: a crash mid-batch
// leaves that batch partly applied, and the processed scan rows are
// deleted from the source only after the last batch.
func processAll(ctx context.Context, opts *runOptions, feed *scanfeed.Feed, d deps) error {
	afterScanID := 0
	if !opts.regenerate {
		p, err := d.params.Get()
		if err != nil {
			return fmt.Errorf("reading params: %w", err)
		}
		afterScanID = p.Lastscanid
	}

	pending, err := feed.PendingScans(afterScanID)
	if err != nil {
		return fmt.Errorf("listing pending scans: %w", err)
	}
	if opts.count > 0 && len(pending) > opts.count {
		log.Info(ctx, "truncating scan list to requested count",
			"pending", humanize.Comma(int64(len(pending))), "count", opts.count)
		pending = pending[:opts.count]
	}

	var processed []model.ScanBatch
	var batchErr error
	for _, scan := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pairs, err := feed.TagPairs(scan.ScanID)
		if err != nil {
			return fmt.Errorf("reading tag pairs for scan %d: %w", scan.ScanID, err)
		}
		wvPairs, err := feed.WVPairs(scan.ScanID)
		if err != nil {
			return fmt.Errorf("reading work/virtual pairs for scan %d: %w", scan.ScanID, err)
		}

		if err := d.synchronizer.ProcessBatch(pairs, wvPairs); err != nil {
			batchErr = err
			metrics.Recorder.BatchErrors.Inc()
			log.Error(ctx, "scan batch completed with errors", "scan_id", scan.ScanID, "error", err)
		}
		if err := d.finalizer.AfterBatch(); err != nil {
			log.Error(ctx, "post-batch finalization failed", "scan_id", scan.ScanID, "error", err)
		}

		metrics.Recorder.ScansProcessed.Inc()
		metrics.Recorder.TracksProcessed.Add(float64(len(pairs)))
		metrics.Recorder.WVProcessed.Add(float64(len(wvPairs)))
		processed = append(processed, scan)

		log.Info(ctx, "scan batch processed", "scan_id", scan.ScanID,
			"tracks", humanize.Comma(int64(len(pairs))), "workvirtual", humanize.Comma(int64(len(wvPairs))))
	}

	if len(processed) == 0 {
		log.Info(ctx, "no pending scans")
		return batchErr
	}

	params, err := d.params.Get()
	if err != nil {
		return fmt.Errorf("reading params: %w", err)
	}
	if err := d.finalizer.AfterRun(processed, params.Lastscanstamp+len(processed)); err != nil {
		return fmt.Errorf("finalizing run: %w", err)
	}

	log.Info(ctx, "run complete", "scans", humanize.Comma(int64(len(processed))))
	return batchErr
}
