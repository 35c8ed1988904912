// Package scheduler periodically reloads the rule catalog from disk, so
// a long-running server picks up edited or newly dropped rule files
// without a restart.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/metrics"
)

// CatalogHolder is the shared, swappable pointer the HTTP and scheduler
// surfaces read from. Swapping it is the only write; readers never lock
// because a *catalog.Catalog is immutable once Load returns it and the
// pointer itself is swapped atomically, so a reload goroutine racing
// with concurrent HTTP request goroutines never produces a torn read.
type CatalogHolder struct {
	current atomic.Pointer[catalog.Catalog]
}

func NewCatalogHolder(initial *catalog.Catalog) *CatalogHolder {
	h := &CatalogHolder{}
	h.current.Store(initial)
	return h
}

func (h *CatalogHolder) Get() *catalog.Catalog { return h.current.Load() }

func (h *CatalogHolder) set(c *catalog.Catalog) { h.current.Store(c) }

// ReloadService reloads a CatalogHolder from ruleDirs on a cron
// schedule, logging and publishing metrics for each load's issues
// instead of ever failing the process.
type ReloadService struct {
	holder   *CatalogHolder
	ruleDirs []string
	cron     *cron.Cron
}

func NewReloadService(holder *CatalogHolder, ruleDirs []string) *ReloadService {
	return &ReloadService{
		holder:   holder,
		ruleDirs: ruleDirs,
		cron:     cron.New(),
	}
}

// Start schedules a reload at the given cron spec (e.g. "@every 5m") and
// begins running it. It does not perform an initial reload itself; the
// holder's initial catalog is expected to already be loaded by the
// caller before Start is invoked.
func (s *ReloadService) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.reloadOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *ReloadService) reloadOnce(ctx context.Context) {
	cat, issues := catalog.Load(s.ruleDirs)
	for _, issue := range issues {
		slog.WarnContext(ctx, "catalog reload issue", "file", issue.File, "rule_id", issue.RuleID, "kind", issue.Kind, "detail", issue.Detail)
	}
	metrics.AddCatalogLoadIssues(len(issues))
	metrics.SetCatalogRulesLoaded(cat.Len())
	s.holder.set(cat)

	var reloadErr error
	if cat.Len() == 0 {
		reloadErr = fmt.Errorf("catalog reload produced zero rules from %v", s.ruleDirs)
	}
	metrics.ObserveCatalogReload(reloadErr)

	slog.InfoContext(ctx, "catalog reloaded", "rule_dirs", s.ruleDirs, "issues", len(issues))
}

// Stop halts the cron scheduler, waiting for any in-flight reload.
func (s *ReloadService) Stop() {
	<-s.cron.Stop().Done()
}
