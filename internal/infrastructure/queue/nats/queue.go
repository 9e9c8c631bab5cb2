// Package nats transports processing jobs between the intake API and the
// worker pool. Jobs are routed to a fixed partition subject by repository
// identifier, so all jobs for one repository land on the same partition,
// while unrelated repositories spread across partitions and run concurrently.
//
// Per-repository ordering requires exactly one consumer per partition. Each
// worker replica is therefore assigned an exclusive subset of partitions
// (Config WORKER_PARTITIONS); a single replica takes them all by default.
// Partition sets must be disjoint across replicas. The queue group is kept as
// a safety net: if an operator assigns overlapping sets, the group degrades
// overlap to load distribution (losing ordering on the shared partitions)
// instead of processing jobs twice.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/infrastructure/resilience"
)

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
}

// Connect opens the shared NATS connection used by the job queue and the
// progress channel.
func Connect(url, name string, options Options) (*nats.Conn, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

type Queue struct {
	conn          *nats.Conn
	subjectPrefix string
	partitions    int
	assigned      []int
	executor      *resilience.Executor
}

// NewQueue builds a queue over subjectPrefix split into partitions. assigned
// names the partitions this process consumes in SubscribeJobs; nil or empty
// means all of them. Publishing always targets the full partition space.
func NewQueue(conn *nats.Conn, subjectPrefix string, partitions int, assigned []int, executor *resilience.Executor) *Queue {
	if partitions <= 0 {
		partitions = 1
	}
	return &Queue{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		partitions:    partitions,
		assigned:      normalizeAssigned(assigned, partitions),
		executor:      executor,
	}
}

// normalizeAssigned drops out-of-range and repeated partition indexes and
// falls back to the full set when nothing valid remains.
func normalizeAssigned(assigned []int, partitions int) []int {
	seen := make(map[int]bool, len(assigned))
	var out []int
	for _, p := range assigned {
		if p < 0 || p >= partitions || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		out = make([]int, partitions)
		for p := range out {
			out[p] = p
		}
	}
	sort.Ints(out)
	return out
}

func (q *Queue) partitionSubject(repositoryID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(repositoryID))
	return fmt.Sprintf("%s.p%d", q.subjectPrefix, int(h.Sum32())%q.partitions)
}

func (q *Queue) PublishJob(ctx context.Context, job domain.ProcessingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal processing job: %w", err)
	}
	subject := q.partitionSubject(job.RepositoryID)

	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "queue.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeJobs consumes jobs from this worker's assigned partitions until
// ctx is canceled. Messages within one partition subscription are dispatched
// serially, which preserves per-repository ordering as long as this replica
// is the partition's only consumer. A malformed message is logged and
// dropped; the handler's error never stops consumption.
func (q *Queue) SubscribeJobs(ctx context.Context, handler func(context.Context, domain.ProcessingJob) error) error {
	subs := make([]*nats.Subscription, 0, len(q.assigned))
	for _, p := range q.assigned {
		subject := fmt.Sprintf("%s.p%d", q.subjectPrefix, p)
		group := fmt.Sprintf("repodoc-workers-p%d", p)

		sub, err := q.conn.QueueSubscribe(subject, group, func(msg *nats.Msg) {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}

			var job domain.ProcessingJob
			if err := json.Unmarshal(msg.Data, &job); err != nil {
				slog.Error("dropping malformed job message", "subject", msg.Subject, "error", err)
				return
			}

			handlerCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if err := handler(handlerCtx, job); err != nil {
				slog.Error("job handler error",
					"repository_id", job.RepositoryID,
					"action", job.ActionType,
					"error", err,
				)
			}
		})
		if err != nil {
			return fmt.Errorf("nats subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			return fmt.Errorf("nats drain subscription: %w", err)
		}
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
