// internal/service/template.go
package service

import (
	"strings"

	"github.com/textloop/textloop-backend/internal/model"
)

// RenderTemplate substitutes {placeholder} tokens in an SMS body. Missing
// values render as an empty string.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// CustomerTemplateData exposes the customer fields available to ad-hoc SMS
// templates.
func CustomerTemplateData(c *model.Customer) map[string]string {
	return map[string]string{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"phone":      c.Phone,
	}
}
