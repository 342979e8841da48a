// Package finalize implements the batch finalizer (C8): the bookkeeping
// that runs once a scan batch's rows are folded into the target
// database, and once more at the end of a run after every pending scan
// has been processed.
package finalize

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/log"
	"github.com/sonospy/movetags/model"
	"github.com/sonospy/movetags/persistence"
)

// Finalizer owns the two database handles (source tagdb, target
// trackdb — the same file when -s and -d match) plus the params
// repository it writes progress into.
type Finalizer struct {
	ctx    context.Context
	target dbx.Builder
	source dbx.Builder
	params *persistence.ParamsRepository
}

func New(ctx context.Context, target, source dbx.Builder, params *persistence.ParamsRepository) *Finalizer {
	return &Finalizer{ctx: ctx, target: target, source: source, params: params}
}

// AfterBatch re-points playlists.track_rowid at the current tracks
// table, the one post-batch step the downstream content server needs.
// Absence of a playlists table (a collaborator-owned table this schema
// never creates) is logged and otherwise ignored, matching the
// catch-and-continue policy every finalizer step uses.
func (f *Finalizer) AfterBatch() error {
	query := `update playlists set track_rowid = (select rowid from tracks where tracks.id = playlists.track_id)`
	if _, err := f.target.NewQuery(query).WithContext(f.ctx).Execute(); err != nil {
		log.Warn(f.ctx, "updating playlist track_rowid", "error", err)
	}
	return nil
}

// AfterRun deletes the source rows for every processed scan, advances
// params' (lastscanstamp, lastscanid) stamp if any scan bumped it, and
// runs ANALYZE — the once-per-run tail of a batch-processing invocation.
// Per-scan failures accumulate rather than aborting the remaining scans.
func (f *Finalizer) AfterRun(processed []model.ScanBatch, lastScanStamp int) error {
	var errs *multierror.Error

	var lastScanID int
	for _, scan := range processed {
		if err := f.deleteScan(scan); err != nil {
			errs = multierror.Append(errs, err)
			log.Error(f.ctx, "failed to delete processed scan", "scan_id", scan.ScanID, "error", err)
			continue
		}
		lastScanID = scan.ScanID
	}

	if lastScanStamp > 0 && len(processed) > 0 {
		if err := f.params.Advance(lastScanStamp, lastScanID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("advancing params: %w", err))
			log.Error(f.ctx, "failed to advance params", "error", err)
		}
	}

	if _, err := f.target.NewQuery("analyze").WithContext(f.ctx).Execute(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("analyze: %w", err))
		log.Error(f.ctx, "failed to analyze target database", "error", err)
	}

	return errs.ErrorOrNil()
}

func (f *Finalizer) deleteScan(scan model.ScanBatch) error {
	if _, err := f.source.NewQuery(`delete from scans where id = {:id} and path = {:path}`).
		WithContext(f.ctx).Bind(dbx.Params{"id": scan.ScanID, "path": scan.ScanPath}).Execute(); err != nil {
		return fmt.Errorf("deleting scan %d: %w", scan.ScanID, err)
	}
	if _, err := f.source.NewQuery(`delete from tags_update where scannumber = {:id}`).
		WithContext(f.ctx).Bind(dbx.Params{"id": scan.ScanID}).Execute(); err != nil {
		return fmt.Errorf("deleting tags_update for scan %d: %w", scan.ScanID, err)
	}
	if _, err := f.source.NewQuery(`delete from workvirtuals_update where scannumber = {:id}`).
		WithContext(f.ctx).Bind(dbx.Params{"id": scan.ScanID}).Execute(); err != nil {
		return fmt.Errorf("deleting workvirtuals_update for scan %d: %w", scan.ScanID, err)
	}
	return nil
}
