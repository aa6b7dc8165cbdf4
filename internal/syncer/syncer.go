// Package syncer implements the scan/upload/delete loop that keeps the
// remote project in step with the local workspace.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devassist/companion/internal/apperr"
	"github.com/devassist/companion/internal/models"
	"github.com/devassist/companion/internal/remote"
	"github.com/devassist/companion/internal/scanner"
	"github.com/devassist/companion/internal/state"
)

// Report summarizes one sync pass.
type Report struct {
	Scanned   int
	Uploaded  int
	Unchanged int
	Deleted   int
	Failed    int
}

// Syncer drives synchronization of one workspace into one remote project.
type Syncer struct {
	scan        scanner.Provider
	store       state.Store
	api         remote.API
	logger      *slog.Logger
	interval    time.Duration
	concurrency int
}

// New creates a Syncer. concurrency bounds parallel uploads within a pass.
func New(scan scanner.Provider, store state.Store, api remote.API, logger *slog.Logger, interval time.Duration, concurrency int) *Syncer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Syncer{
		scan:        scan,
		store:       store,
		api:         api,
		logger:      logger,
		interval:    interval,
		concurrency: concurrency,
	}
}

// SyncOnce performs a single pass:
//   - new/changed files are uploaded and their state rows updated
//   - remote files with no counterpart on disk are deleted
//
// Per-file upload failures are logged and counted, they do not abort the
// pass. An authorization failure does: a rejected key never heals on retry.
func (s *Syncer) SyncOnce(ctx context.Context) (*Report, error) {
	started := time.Now().UTC()

	metas, err := s.scan.List()
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	known, err := s.store.AllChecksums()
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	disk := make(map[string]struct{}, len(metas))
	var changed []models.FileMetadata
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		changed = append(changed, m)
	}

	var uploaded, failed atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, m := range changed {
		m := m
		g.Go(func() error {
			if err := s.upload(gCtx, m); err != nil {
				if errors.Is(err, apperr.ErrUnauthorized) || gCtx.Err() != nil {
					return err
				}
				failed.Add(1)
				s.logger.Warn("sync: upload failed",
					slog.String("path", m.Path), slog.String("error", err.Error()))
				return nil
			}
			uploaded.Add(1)
			s.logger.Debug("sync: uploaded", slog.String("path", m.Path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	deleted, err := s.deleteStale(ctx, disk, known)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Scanned:   len(metas),
		Uploaded:  int(uploaded.Load()),
		Unchanged: len(metas) - len(changed),
		Deleted:   deleted,
		Failed:    int(failed.Load()),
	}

	if err := s.store.RecordRun(state.RunRow{
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Scanned:    rep.Scanned,
		Uploaded:   rep.Uploaded,
		Deleted:    rep.Deleted,
		Failed:     rep.Failed,
	}); err != nil {
		s.logger.Warn("sync: record run failed", slog.String("error", err.Error()))
	}

	return rep, nil
}

// upload reads one changed file, pushes it, and updates its state row.
// The state row is written only after a successful upload so a failed file
// is picked up again on the next pass.
func (s *Syncer) upload(ctx context.Context, m models.FileMetadata) error {
	data, err := s.scan.Read(m.Path)
	if err != nil {
		return err
	}
	doc := models.FileDocument{
		Name:       m.Path,
		Content:    data,
		Hash:       m.Checksum,
		LastSynced: time.Now().UTC(),
	}
	if err := s.api.UpsertFile(ctx, doc); err != nil {
		return err
	}
	return s.store.UpsertFile(state.FileRow{
		Path:     m.Path,
		Checksum: m.Checksum,
		Size:     m.Size,
		SyncedAt: doc.LastSynced,
	})
}

// deleteStale removes remote files and state rows whose files are gone from
// disk. The remote listing is authoritative for what exists on the service.
func (s *Syncer) deleteStale(ctx context.Context, disk map[string]struct{}, known map[string]string) (int, error) {
	remoteFiles, err := s.api.ListFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list remote files: %w", err)
	}

	deleted := 0
	for _, rf := range remoteFiles {
		if _, ok := disk[rf.Name]; ok {
			continue
		}
		if err := s.api.DeleteFile(ctx, rf.Name); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			if errors.Is(err, apperr.ErrUnauthorized) {
				return deleted, err
			}
			s.logger.Warn("sync: remote delete failed",
				slog.String("name", rf.Name), slog.String("error", err.Error()))
			continue
		}
		deleted++
		s.logger.Debug("sync: removed stale remote file", slog.String("name", rf.Name))
	}

	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := s.store.DeleteFile(p); err != nil {
			s.logger.Warn("sync: state delete failed",
				slog.String("path", p), slog.String("error", err.Error()))
		}
	}

	return deleted, nil
}

// Run performs an immediate pass and then repeats at the configured interval
// until ctx is cancelled. Pass failures are logged and the loop continues,
// except for authorization failures, which are returned.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		rep, err := s.SyncOnce(ctx)
		switch {
		case err == nil:
			s.logger.Info("sync pass complete",
				slog.Int("scanned", rep.Scanned),
				slog.Int("uploaded", rep.Uploaded),
				slog.Int("unchanged", rep.Unchanged),
				slog.Int("deleted", rep.Deleted),
				slog.Int("failed", rep.Failed))
		case errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, apperr.ErrUnauthorized):
			return err
		default:
			s.logger.Warn("sync pass failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
