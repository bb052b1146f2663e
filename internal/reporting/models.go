package reporting

// WorkforceSummary aggregates the agent roster for the supervisor dashboard.

type WorkforceSummary struct {
	TotalAgents     int `json:"total_agents"`
	AvailableAgents int `json:"available_agents"`

	// ByActivity counts agents per activity display name.
	ByActivity map[string]int `json:"by_activity"`
}

// QueueSummary aggregates tasks per queue by assignment status.

type QueueSummary struct {
	QueueSid  string `json:"queue_sid"`
	QueueName string `json:"queue_name"`

	TotalTasks     int `json:"total_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	AssignedTasks  int `json:"assigned_tasks"`
	AcceptedTasks  int `json:"accepted_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	CanceledTasks  int `json:"canceled_tasks"`
	TimedOutTasks  int `json:"timed_out_tasks"`

	HighestPriority int `json:"highest_priority"`
}
