package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/mail"
	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/state"
)

// Pipeline drives one batch: classify, draft, decide, deliver, persist.
// All run-scoped state (the send counter included) lives on the value, so
// concurrent invocations with separate stores do not interfere.
type Pipeline struct {
	Classifier *Classifier
	Drafter    *Drafter
	Decisions  DecisionSource
	Drafts     *DraftWriter
	Sender     mail.Sender // nil when no transport is configured
	Store      state.Store

	// SendLimit is the per-run send ceiling. After this many sends the
	// batch stops (current lead is persisted first). Zero or negative
	// disables the ceiling.
	SendLimit int
}

// Summary reports what one batch did.
type Summary struct {
	Processed    int  `json:"processed"`
	Sent         int  `json:"sent"`
	Saved        int  `json:"saved"`
	Rejected     int  `json:"rejected"`
	Skipped      int  `json:"skipped"`
	Failed       int  `json:"failed"`
	LimitReached bool `json:"limit_reached"`
}

// Run processes every lead not already present in the state store. A
// per-lead failure is logged and recorded but never stops the batch;
// only a store load failure or context cancellation is fatal.
func (p *Pipeline) Run(ctx context.Context, leads []model.Lead) (*Summary, error) {
	summary := &Summary{}

	states, err := p.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	processed := state.ProcessedIDs(states)

	var fresh []model.Lead
	for _, lead := range leads {
		if !processed[lead.ID] {
			fresh = append(fresh, lead)
		}
	}
	if len(fresh) == 0 {
		zap.L().Info("all leads already processed", zap.Int("total", len(leads)))
		return summary, nil
	}
	zap.L().Info("processing new leads",
		zap.Int("new", len(fresh)),
		zap.Int("total", len(leads)),
	)

	for _, lead := range fresh {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Processed++
		if err := p.processLead(ctx, lead, summary); err != nil {
			summary.Failed++
			zap.L().Error("lead processing failed",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
			if recErr := p.Store.RecordFailure(ctx, lead.ID, err); recErr != nil {
				zap.L().Error("failed to record lead failure",
					zap.String("lead_id", lead.ID),
					zap.Error(recErr),
				)
			}
			continue
		}

		if summary.LimitReached {
			zap.L().Info("send ceiling reached, stopping batch for review",
				zap.Int("sent", summary.Sent),
				zap.Int("limit", p.SendLimit),
			)
			break
		}
	}

	return summary, nil
}

func (p *Pipeline) processLead(ctx context.Context, lead model.Lead, summary *Summary) error {
	zap.L().Info("processing lead",
		zap.String("lead_id", lead.ID),
		zap.String("name", lead.Name),
		zap.String("source", lead.Source),
	)

	cls := p.Classifier.Classify(ctx, lead)

	draft, err := p.Drafter.Draft(ctx, lead, cls)
	if err != nil {
		// No usable email content. Save a placeholder so the review
		// artifact exists, keep the lead out of the send path, and
		// persist it for manual follow-up.
		zap.L().Warn("draft generation failed, saving placeholder",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		placeholder := fmt.Sprintf(
			"Draft generation failed for lead %s (%s).\nCategory: %s\nNext action: %s\nWrite this follow-up manually.\n",
			lead.ID, lead.Name, cls.Category, cls.NextAction,
		)
		if _, err := p.Drafts.Save(lead, placeholder); err != nil {
			return err
		}
		if _, err := p.Store.Upsert(ctx, lead.ID, model.StatusApproved, cls.NextAction); err != nil {
			return err
		}
		summary.Saved++
		return nil
	}

	decision, err := p.Decisions.Decide(ctx, lead, cls, draft)
	if err != nil {
		return err
	}

	switch decision.Action {
	case model.ActionSkip:
		summary.Skipped++
		zap.L().Info("lead skipped", zap.String("lead_id", lead.ID))
		return nil

	case model.ActionReject:
		if _, err := p.Store.Upsert(ctx, lead.ID, model.StatusRejected, "no_action"); err != nil {
			return err
		}
		summary.Rejected++
		zap.L().Info("lead rejected",
			zap.String("lead_id", lead.ID),
			zap.String("reason", decision.Content),
		)
		return nil
	}

	// Approved: the draft is always saved, sending is conditional.
	path, err := p.Drafts.Save(lead, decision.Content)
	if err != nil {
		return err
	}
	zap.L().Info("draft saved",
		zap.String("lead_id", lead.ID),
		zap.String("path", path),
	)

	status := model.StatusApproved
	if decision.SendNow {
		if p.Sender == nil {
			zap.L().Warn("email transport not configured, draft saved only",
				zap.String("lead_id", lead.ID),
			)
		} else if err := p.send(ctx, lead, decision.Content); err != nil {
			// Send failures are not retried; the draft survives and the
			// lead is persisted as approved-but-unsent.
			zap.L().Error("email send failed",
				zap.String("lead_id", lead.ID),
				zap.String("to", lead.Email),
				zap.Error(err),
			)
		} else {
			status = model.StatusApprovedSent
			summary.Sent++
			zap.L().Info("email sent",
				zap.String("lead_id", lead.ID),
				zap.String("to", lead.Email),
				zap.Int("sent_this_run", summary.Sent),
			)
		}
	}

	if _, err := p.Store.Upsert(ctx, lead.ID, status, cls.NextAction); err != nil {
		return err
	}
	summary.Saved++

	if p.SendLimit > 0 && summary.Sent >= p.SendLimit {
		summary.LimitReached = true
	}
	return nil
}

func (p *Pipeline) send(ctx context.Context, lead model.Lead, content string) error {
	subject, body := mail.ParseContent(content)
	return p.Sender.Send(ctx, mail.Email{
		To:      lead.Email,
		Subject: subject,
		Body:    body,
	})
}
