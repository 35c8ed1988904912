package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/apicrafter/metacrafter/cache/rediscache"
	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/engine"
	"github.com/apicrafter/metacrafter/classifier/model"
	"github.com/apicrafter/metacrafter/metrics"
)

// ScanController exposes the classification engine over HTTP. catalogFn
// is consulted on every request rather than captured once, so a catalog
// swapped in by the background reloader is visible without restarting
// the server; the catalog it returns is itself immutable and safe to
// share across concurrent requests.
type ScanController struct {
	catalogFn    func() *catalog.Catalog
	engineOpts   engine.Options // carries DateParser + shared defaults
	analyzerOpts analyzer.Options
	cache        *rediscache.ReportCache
}

func NewScanController(catalogFn func() *catalog.Catalog, engineOpts engine.Options, analyzerOpts analyzer.Options, cache *rediscache.ReportCache) *ScanController {
	return &ScanController{catalogFn: catalogFn, engineOpts: engineOpts, analyzerOpts: analyzerOpts, cache: cache}
}

// ScanRequest is the JSON body for POST /scan: a literal batch of rows
// plus the same filters the CLI exposes.
type ScanRequest struct {
	Records             []json.RawMessage `json:"records"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	StopOnMatch         bool              `json:"stop_on_match"`
	ParseDates          *bool             `json:"parse_dates"`
	IgnoreImprecise     *bool             `json:"ignore_imprecise"`
	ContextFilters      []string          `json:"context"`
	LangFilters         []string          `json:"lang"`
	CountryFilters      []string          `json:"country"`
	Fields              []string          `json:"fields"`
}

func (c *ScanController) Scan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	scanID := uuid.New().String()
	w.Header().Set("X-Scan-Id", scanID)

	body, err := bufferBody(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, fail("reading request body: "+err.Error()))
		return
	}

	var req ScanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, fail("malformed request body: "+err.Error()))
		return
	}

	cacheKey := rediscache.Key(body, req.fingerprint())
	if cached, hit := c.cache.Get(r.Context(), cacheKey); hit {
		w.Header().Set("X-Scan-Cache", "hit")
		render.JSON(w, r, ok(cached))
		return
	}

	records := make([]model.Record, 0, len(req.Records))
	for _, raw := range req.Records {
		order, row, err := model.DecodeOrderedJSONObject(raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, fail("malformed record: "+err.Error()))
			return
		}
		records = append(records, model.NewRecord(order, row))
	}
	src := model.NewSliceSource(records)

	analyzeOpts := c.analyzerOpts
	stats := analyzer.Analyze(src, analyzeOpts)

	view := c.catalogFn().Select(catalog.SelectOptions{
		ContextFilters:  req.ContextFilters,
		LangFilters:     req.LangFilters,
		CountryFilters:  req.CountryFilters,
		IgnoreImprecise: boolOr(req.IgnoreImprecise, true),
	})

	engOpts := c.engineOpts
	engOpts.ConfidenceThreshold = req.ConfidenceThreshold
	engOpts.StopOnMatch = req.StopOnMatch
	engOpts.ParseDates = boolOr(req.ParseDates, true)
	engOpts.IgnoreImprecise = boolOr(req.IgnoreImprecise, true)
	if len(req.Fields) > 0 {
		engOpts.Fields = make(map[string]struct{}, len(req.Fields))
		for _, f := range req.Fields {
			engOpts.Fields[f] = struct{}{}
		}
	}

	report, err := engine.Classify(context.Background(), view, stats, engOpts)
	metrics.ObserveScan(time.Since(start), err)
	if err != nil {
		slog.Error("scan failed", "scan_id", scanID, "error", err)
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, fail(err.Error()))
		return
	}

	c.cache.Set(r.Context(), cacheKey, report)

	slog.Info("scan completed", "scan_id", scanID, "fields", len(report.Data), "duration_ms", time.Since(start).Milliseconds())
	render.JSON(w, r, ok(report))
}

// fingerprint captures every request field that affects Classify's
// output but isn't part of the raw record payload, so two requests
// with identical records but different options never collide in the
// cache.
func (req ScanRequest) fingerprint() string {
	b, _ := json.Marshal(struct {
		ConfidenceThreshold float64
		StopOnMatch         bool
		ParseDates          *bool
		IgnoreImprecise     *bool
		ContextFilters      []string
		LangFilters         []string
		CountryFilters      []string
		Fields              []string
	}{
		req.ConfidenceThreshold, req.StopOnMatch, req.ParseDates, req.IgnoreImprecise,
		req.ContextFilters, req.LangFilters, req.CountryFilters, req.Fields,
	})
	return string(b)
}

func bufferBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
