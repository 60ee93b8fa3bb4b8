// internal/controller/sms_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/textloop/textloop-backend/internal/service"
)

type SMSController struct {
	SMSService *service.SMSService
}

// SendSMS queues an ad-hoc message to one or more customers. A null send_at
// means send now; otherwise the poller picks it up when the time arrives.
func (c *SMSController) SendSMS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BusinessID  int        `json:"business_id"`
		CustomerIDs []int      `json:"customer_ids"`
		Body        string     `json:"body"`
		SendAt      *time.Time `json:"send_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(body.CustomerIDs) == 0 {
		http.Error(w, "customer_ids is empty", http.StatusBadRequest)
		return
	}

	result, err := c.SMSService.SendBatch(r.Context(), body.BusinessID, body.CustomerIDs, body.Body, body.SendAt)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBody) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}
