package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/refund"
)

// ErrMalformedMessage marks a stream message that can never be processed.
var ErrMalformedMessage = errors.New("malformed rejection message")

// ParseRejectionMessage reads a rejection event from redis stream fields:
// kind, tournament_id, organizer_id, player_id, registration_id, payment_id,
// reason and actor.
func ParseRejectionMessage(values map[string]any) (RejectionEvent, error) {
	field := func(name string) string {
		s, _ := values[name].(string)
		return strings.TrimSpace(s)
	}

	kind, err := refund.ParseKind(field("kind"))
	if err != nil {
		return RejectionEvent{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	ev := RejectionEvent{
		Kind:           kind,
		TournamentID:   field("tournament_id"),
		OrganizerID:    field("organizer_id"),
		PlayerID:       field("player_id"),
		RegistrationID: field("registration_id"),
		Reason:         field("reason"),
		Actor:          field("actor"),
	}
	if ev.TournamentID == "" {
		return RejectionEvent{}, fmt.Errorf("%w: tournament_id is required", ErrMalformedMessage)
	}
	if ev.Actor == "" {
		ev.Actor = "system"
	}
	if raw := field("payment_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return RejectionEvent{}, fmt.Errorf("%w: payment_id: %w", ErrMalformedMessage, err)
		}
		ev.PaymentID = &id
	}
	return ev, nil
}

// Redeliverable reports whether a failed message should stay pending for a
// later retry instead of going to the dead letter stream.
func Redeliverable(err error) bool {
	return errors.Is(err, domainErrors.ErrBackendUnavailable) ||
		errors.Is(err, domainErrors.ErrConcurrentModification)
}
