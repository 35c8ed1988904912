package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/apicrafter/metacrafter/classifier/catalog"
)

// HealthController reports catalog-load health: a server whose catalog
// never loaded, or whose most recent reload left it empty, is not fit
// to classify anything even though its HTTP listener is up.
type HealthController struct {
	catalogFn func() *catalog.Catalog
}

func NewHealthController(catalogFn func() *catalog.Catalog) *HealthController {
	return &HealthController{catalogFn: catalogFn}
}

// HealthzResponse is returned by Healthz.
type HealthzResponse struct {
	Status      string    `json:"status" example:"ok"`
	RulesLoaded int       `json:"rules_loaded"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service" example:"metacrafter"`
}

func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	cat := c.catalogFn()
	n := cat.Len()
	resp := HealthzResponse{RulesLoaded: n, Timestamp: time.Now(), Service: "metacrafter"}
	if n == 0 {
		resp.Status = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, resp)
		return
	}
	resp.Status = "ok"
	render.JSON(w, r, resp)
}
