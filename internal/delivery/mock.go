// internal/delivery/mock.go
package delivery

import (
	"context"
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
)

// MockSender fakes deliveries for development: logs the message and succeeds
// with the configured rate (default 90%).
type MockSender struct {
	SuccessRate float64
}

func NewMockSender() *MockSender {
	return &MockSender{SuccessRate: 0.9}
}

func (s *MockSender) Send(ctx context.Context, to, body, from string) (string, error) {
	if rand.Float64() >= s.SuccessRate {
		return "", appErrors.NewDelivery(errMockSend)
	}
	id := "mock-" + uuid.NewString()
	log.Info().Str("to", to).Str("from", from).Str("delivery_id", id).Msg("mock SMS sent")
	return id, nil
}

var _ Sender = (*MockSender)(nil)

var errMockSend = errors.New("mock sending failed")
