// internal/controller/roadmap_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/textloop/textloop-backend/internal/service"
)

type RoadmapController struct {
	RoadmapService *service.RoadmapService
}

// GenerateRoadmap drafts a roadmap for the customer. ?force=true wipes the
// customer's unsent entries first; without it an existing unsent roadmap is
// returned untouched. A generation already in flight comes back as 409.
func (c *RoadmapController) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	force := r.URL.Query().Get("force") == "true"

	roadmap, err := c.RoadmapService.Generate(r.Context(), customerID, force)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"customer_id": customerID,
		"data":        roadmap,
	})
}

func (c *RoadmapController) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	roadmap, err := c.RoadmapService.List(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer_id": customerID,
		"data":        roadmap,
	})
}

// ConfirmMessage approves a pending-review roadmap message for sending.
func (c *RoadmapController) ConfirmMessage(w http.ResponseWriter, r *http.Request) {
	roadmapID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	rm, err := c.RoadmapService.Confirm(r.Context(), roadmapID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rm)
}
