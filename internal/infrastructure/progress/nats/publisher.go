// Package nats publishes pipeline progress events to per-repository
// subjects. Events are ephemeral: delivered to whoever is subscribed at the
// moment, never persisted, and publishing is best effort so a flaky observer
// channel can never fail a job.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

func NewPublisher(conn *nats.Conn, subjectPrefix string) *Publisher {
	return &Publisher{conn: conn, subjectPrefix: subjectPrefix}
}

func (p *Publisher) subject(repositoryID string) string {
	return fmt.Sprintf("%s.%s", p.subjectPrefix, repositoryID)
}

func (p *Publisher) PublishLog(_ context.Context, repositoryID, step, message string) {
	p.publish(domain.NewLogEvent(repositoryID, step, message))
}

func (p *Publisher) PublishStatus(_ context.Context, repositoryID string, status domain.RepositoryStatus) {
	p.publish(domain.NewStatusEvent(repositoryID, status))
}

func (p *Publisher) publish(event domain.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal progress event", "error", err)
		return
	}
	if err := p.conn.Publish(p.subject(event.RepositoryID), payload); err != nil {
		slog.Warn("publish progress event",
			"repository_id", event.RepositoryID,
			"type", event.Type,
			"error", err,
		)
	}
}

// Subscribe delivers a repository's progress events to handler until ctx is
// canceled. Used by the API's event-stream endpoint.
func (p *Publisher) Subscribe(ctx context.Context, repositoryID string, handler func(domain.ProgressEvent)) error {
	sub, err := p.conn.Subscribe(p.subject(repositoryID), func(msg *nats.Msg) {
		var event domain.ProgressEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed progress event", "subject", msg.Subject, "error", err)
			return
		}
		event.RepositoryID = repositoryID
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("subscribe progress: %w", err)
	}

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe progress: %w", err)
	}
	return nil
}
