// internal/controller/webhook_controller.go
package controller

import (
	"net/http"

	"github.com/textloop/textloop-backend/internal/service"
)

type WebhookController struct {
	InboundService *service.InboundService
}

// InboundSMS receives the provider's form-encoded webhook for a
// customer-originated message. From is the customer number, To is the
// business number.
func (c *WebhookController) InboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	from := r.PostFormValue("From")
	to := r.PostFormValue("To")
	body := r.PostFormValue("Body")
	if from == "" || to == "" {
		http.Error(w, "From and To are required", http.StatusBadRequest)
		return
	}

	result, err := c.InboundService.HandleInbound(r.Context(), from, to, body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
