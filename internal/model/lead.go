// Package model defines the core domain types shared across the pipeline:
// leads, classifications, persisted lead state, and review decisions.
package model

import (
	"strings"
	"time"
)

// Lead is one inbound inquiry record. Leads are immutable inputs; the
// pipeline never writes back to the lead source.
type Lead struct {
	ID      string `json:"lead_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// Category is the sales-readiness bucket assigned by classification.
type Category string

const (
	CategoryHot  Category = "Hot"
	CategoryWarm Category = "Warm"
	CategoryCold Category = "Cold"
)

// AllCategories returns the valid categories in descending readiness order.
func AllCategories() []Category {
	return []Category{CategoryHot, CategoryWarm, CategoryCold}
}

// categoryRank orders categories for threshold comparison: Hot > Warm > Cold.
var categoryRank = map[Category]int{
	CategoryHot:  3,
	CategoryWarm: 2,
	CategoryCold: 1,
}

// AtLeast reports whether c is at or above the given threshold category.
// Unknown categories rank below Cold.
func (c Category) AtLeast(threshold Category) bool {
	return categoryRank[c] >= categoryRank[threshold] && categoryRank[c] > 0
}

// ParseCategory normalizes a free-form category string to a Category.
// Returns ("", false) for anything outside the enum.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hot":
		return CategoryHot, true
	case "warm":
		return CategoryWarm, true
	case "cold":
		return CategoryCold, true
	}
	return "", false
}

// Urgency is the classifier's timeline judgment.
type Urgency string

const (
	UrgencyImmediate Urgency = "Immediate"
	UrgencyThisWeek  Urgency = "This Week"
	UrgencyThisMonth Urgency = "This Month"
	UrgencyUnknown   Urgency = "Unknown"
)

// ParseUrgency normalizes a free-form urgency string. Anything outside the
// enum maps to UrgencyUnknown; the classifier treats urgency as advisory.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate":
		return UrgencyImmediate
	case "this week":
		return UrgencyThisWeek
	case "this month":
		return UrgencyThisMonth
	}
	return UrgencyUnknown
}

// Classification is the structured judgment of one lead. It is derived per
// run and never persisted verbatim; only NextAction survives into LeadState.
type Classification struct {
	Category   Category `json:"category"`
	Intent     string   `json:"intent"`
	Urgency    Urgency  `json:"urgency"`
	Concerns   []string `json:"concerns"`
	NextAction string   `json:"next_action"`
	Reasoning  string   `json:"reasoning"`
}

// FallbackClassification is returned when the model call or parse fails
// after all retries. The values are fixed so downstream behavior is
// deterministic: Warm never auto-sends under the default Hot threshold.
func FallbackClassification() Classification {
	return Classification{
		Category:   CategoryWarm,
		Intent:     "Unknown",
		Urgency:    UrgencyUnknown,
		Concerns:   []string{},
		NextAction: "Manual review needed",
		Reasoning:  "Automated classification failed",
	}
}

// LeadStatus is the persisted disposition of a lead.
type LeadStatus string

const (
	StatusApproved     LeadStatus = "approved"      // draft saved, not sent
	StatusApprovedSent LeadStatus = "approved_sent" // draft saved and emailed
	StatusRejected     LeadStatus = "rejected"
)

// LeadState is one durable row in the state table, keyed by lead ID.
// FollowUpCount starts at 1 on insert and increments by exactly 1 on every
// subsequent upsert for the same lead.
type LeadState struct {
	LeadID        string     `json:"lead_id"`
	Status        LeadStatus `json:"status"`
	FollowUpCount int        `json:"follow_up_count"`
	LastContact   time.Time  `json:"last_contact"`
	NextAction    string     `json:"next_action"`
}

// DecisionAction is what a decision source chose to do with a lead.
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
	ActionSkip    DecisionAction = "skip"
)

// Decision is the outcome of reviewing one classified, drafted lead.
// Content carries the (possibly edited) email text for approvals and the
// optional reason for rejections.
type Decision struct {
	Action  DecisionAction
	Content string
	SendNow bool
}

// FailureRecord captures a per-lead processing error for diagnostics.
// Failed leads get no state row and are retried on the next run.
type FailureRecord struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}
