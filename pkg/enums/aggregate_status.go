package enums

import "fmt"

// AggregateStatus is the request-level status derived from its assignments. It is never stored.
type AggregateStatus string

const (
	AggregateStatusUpdateRequired AggregateStatus = "Update Required"
	AggregateStatusPending        AggregateStatus = "Pending"
	AggregateStatusOnProcess      AggregateStatus = "On Process"
	AggregateStatusClosed         AggregateStatus = "Closed"
	AggregateStatusMixed          AggregateStatus = "Mixed"
)

var aggregateStatusRanks = map[AggregateStatus]int{
	AggregateStatusUpdateRequired: 1,
	AggregateStatusPending:        2,
	AggregateStatusOnProcess:      3,
	AggregateStatusClosed:         4,
	AggregateStatusMixed:          5,
}

var aggregateStatusDescriptions = map[AggregateStatus]string{
	AggregateStatusUpdateRequired: "classification is incomplete",
	AggregateStatusPending:        "waiting for assigned staff to start",
	AggregateStatusOnProcess:      "at least one assignee is working on it",
	AggregateStatusClosed:         "all assignees completed their work",
	AggregateStatusMixed:          "assignments are in an unexpected combination of states",
}

// Rank is the listing sort key; lower ranks list first.
func (s AggregateStatus) Rank() int {
	if rank, ok := aggregateStatusRanks[s]; ok {
		return rank
	}
	return aggregateStatusRanks[AggregateStatusMixed]
}

func (s AggregateStatus) Description() string {
	return aggregateStatusDescriptions[s]
}

func (s AggregateStatus) IsValid() bool {
	_, ok := aggregateStatusRanks[s]
	return ok
}

// ParseAggregateStatus converts a status filter into an AggregateStatus.
func ParseAggregateStatus(value string) (AggregateStatus, error) {
	status := AggregateStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid request status %q", value)
	}
	return status, nil
}
