package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/digest"
)

type SendDigestTask struct {
	Task
	Subscriber     database.Subscriber
	builder        DigestBuilder
	renderer       *digest.Renderer
	mailer         digest.Mailer
	subscriberRepo database.SubscriberRepository
	now            func() time.Time
}

func NewSendDigestTask(subscriber database.Subscriber, builder DigestBuilder, renderer *digest.Renderer,
	mailer digest.Mailer, subscriberRepo database.SubscriberRepository) *SendDigestTask {
	return &SendDigestTask{
		Task:           NewTask(TaskTypeSendDigest, subscriber.Email),
		Subscriber:     subscriber,
		builder:        builder,
		renderer:       renderer,
		mailer:         mailer,
		subscriberRepo: subscriberRepo,
		now:            time.Now,
	}
}

func (t *SendDigestTask) Execute(ctx context.Context) error {
	d, err := t.builder.BuildFor(ctx, t.Subscriber)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	now := t.now()
	msg, err := t.renderer.Render(t.Subscriber.Name, t.Subscriber.Token, d.Panels, now)
	if err != nil {
		return err
	}

	// Delivery is at most once: when the relay outcome is unknown the digest
	// counts as sent, because a retry could deliver it twice.
	if err := t.mailer.Send(ctx, t.Subscriber.Email, msg); err != nil {
		if !errors.Is(err, digest.ErrDeliveryUnknown) {
			return err
		}
		slog.Warn("Digest delivery unconfirmed, not retrying", "subscriber", t.Subject, "error", err)
	}

	// A failure here only risks a duplicate digest on the next slot.
	if err := t.subscriberRepo.MarkSent(t.Subscriber.ID, now); err != nil {
		slog.Error("Failed to mark digest sent", "subscriber", t.Subject, "error", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"subscriber", t.Subject,
		"sector", len(d.Panels.Sector.Articles),
		"editorial", len(d.Panels.Editorial.Articles),
		"social", len(d.Panels.Social.Articles),
		"duration", t.GetDuration())

	return nil
}
