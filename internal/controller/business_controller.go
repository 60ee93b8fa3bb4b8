// internal/controller/business_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/repository"
)

type BusinessController struct {
	BusinessRepo repository.BusinessRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
}

func (c *BusinessController) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Timezone     string `json:"timezone"`
		VoiceProfile string `json:"voice_profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Phone == "" {
		http.Error(w, "name and phone are required", http.StatusBadRequest)
		return
	}

	business := &model.Business{
		Name:         body.Name,
		Phone:        body.Phone,
		Timezone:     body.Timezone,
		VoiceProfile: body.VoiceProfile,
	}
	if err := c.BusinessRepo.Create(r.Context(), business); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, business)
}

func (c *BusinessController) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	business, err := c.BusinessRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if business == nil {
		writeError(w, appErrors.NewMissingEntity("business", id))
		return
	}

	writeJSON(w, http.StatusOK, business)
}

// ImportCustomers bulk-creates customers under a business. Rows colliding on
// (business_id, phone) are skipped, not treated as errors.
func (c *BusinessController) ImportCustomers(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Customers []struct {
			Phone     string `json:"phone"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Timezone  string `json:"timezone"`
		} `json:"customers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(body.Customers) == 0 {
		http.Error(w, "customers list is empty", http.StatusBadRequest)
		return
	}

	business, err := c.BusinessRepo.GetByID(r.Context(), businessID)
	if err != nil {
		writeError(w, err)
		return
	}
	if business == nil {
		writeError(w, appErrors.NewMissingEntity("business", businessID))
		return
	}

	customers := make([]model.Customer, 0, len(body.Customers))
	for _, in := range body.Customers {
		if in.Phone == "" {
			http.Error(w, "every customer needs a phone", http.StatusBadRequest)
			return
		}
		customers = append(customers, model.Customer{
			BusinessID: businessID,
			Phone:      in.Phone,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			Timezone:   in.Timezone,
			Subscribed: true,
		})
	}

	created, err := c.CustomerRepo.CreateBatch(r.Context(), customers)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"imported": len(created),
		"skipped":  len(customers) - len(created),
		"data":     created,
	})
}

func (c *BusinessController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	customers, err := c.CustomerRepo.ListByBusiness(r.Context(), businessID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": customers})
}

// BusinessStats returns per-status message counts plus a total.
func (c *BusinessController) BusinessStats(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	business, err := c.BusinessRepo.GetByID(r.Context(), businessID)
	if err != nil {
		writeError(w, err)
		return
	}
	if business == nil {
		writeError(w, appErrors.NewMissingEntity("business", businessID))
		return
	}

	stats, err := c.MessageRepo.StatsByBusiness(r.Context(), businessID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"business_id": businessID,
		"stats":       stats,
	})
}
