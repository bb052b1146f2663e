package reporting

import (
	"context"
	"errors"
	"sort"

	"callcenter-platform/internal/taskrouter"
)

// Repository abstracts data access for reporting.
// Implementations should read the same mirror the reconciliation engine
// writes, so summaries always reflect the last successfully processed webhook.

type Repository interface {
	ListWorkers(ctx context.Context) ([]taskrouter.Worker, error)
	ListTasks(ctx context.Context) ([]taskrouter.Task, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

var errNoRepository = errors.New("reporting: repository not configured")

func (s *Service) WorkforceSummary(ctx context.Context) (WorkforceSummary, error) {
	if s.repo == nil {
		return WorkforceSummary{}, errNoRepository
	}
	workers, err := s.repo.ListWorkers(ctx)
	if err != nil {
		return WorkforceSummary{}, err
	}

	out := WorkforceSummary{ByActivity: map[string]int{}}
	for _, w := range workers {
		out.TotalAgents++
		if w.Available {
			out.AvailableAgents++
		}
		out.ByActivity[taskrouter.TranslateActivity(w.ActivityName).Display]++
	}
	return out, nil
}

// QueueSummaries returns one summary per queue, ordered by display name.
func (s *Service) QueueSummaries(ctx context.Context) ([]QueueSummary, error) {
	if s.repo == nil {
		return nil, errNoRepository
	}
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	byQueue := map[string]*QueueSummary{}
	for _, t := range tasks {
		q, ok := byQueue[t.QueueSid]
		if !ok {
			view := taskrouter.TranslateQueue(t.QueueSid, t.QueueName)
			q = &QueueSummary{QueueSid: t.QueueSid, QueueName: view.Name}
			byQueue[t.QueueSid] = q
		}

		q.TotalTasks++
		if t.Priority > q.HighestPriority {
			q.HighestPriority = t.Priority
		}
		switch t.AssignmentStatus {
		case taskrouter.AssignmentStatusPending:
			q.PendingTasks++
		case taskrouter.AssignmentStatusAssigned:
			q.AssignedTasks++
		case taskrouter.AssignmentStatusAccepted:
			q.AcceptedTasks++
		case taskrouter.AssignmentStatusCompleted:
			q.CompletedTasks++
		case taskrouter.AssignmentStatusCanceled:
			q.CanceledTasks++
		case taskrouter.AssignmentStatusTimeout:
			q.TimedOutTasks++
		}
	}

	out := make([]QueueSummary, 0, len(byQueue))
	for _, q := range byQueue {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QueueName != out[j].QueueName {
			return out[i].QueueName < out[j].QueueName
		}
		return out[i].QueueSid < out[j].QueueSid
	})
	return out, nil
}
