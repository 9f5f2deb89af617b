package services

import (
	"context"
	"log"
	"time"

	"github.com/globizora/api-service/models"
)

// ContactSubmission is what gets archived and mailed for each contact request.
type ContactSubmission struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

type ContactArchive interface {
	Archive(ctx context.Context, sub ContactSubmission) error
}

type ContactNotifier interface {
	Notify(ctx context.Context, sub ContactSubmission) error
}

// ContactDispatcher fans a submission out to the configured sinks. Sink
// failures are logged and never fail the request.
type ContactDispatcher struct {
	Archive  ContactArchive
	Notifier ContactNotifier
	NewID    func() string
	Now      func() time.Time
}

func (d *ContactDispatcher) Dispatch(ctx context.Context, req models.ContactRequest) ContactSubmission {
	sub := ContactSubmission{
		Name:       req.Name,
		Email:      req.Email,
		Message:    req.Message,
		ReceivedAt: d.now(),
	}
	if d.NewID != nil {
		sub.ID = d.NewID()
	}

	if d.Archive != nil {
		if err := d.Archive.Archive(ctx, sub); err != nil {
			log.Printf("Contact archive failed for %s: %v", sub.ID, err)
		}
	}
	if d.Notifier != nil {
		if err := d.Notifier.Notify(ctx, sub); err != nil {
			log.Printf("Contact notification failed for %s: %v", sub.ID, err)
		}
	}
	return sub
}

func (d *ContactDispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}
