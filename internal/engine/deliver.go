package engine

import (
	"context"
	"fmt"

	"github.com/Hakote/Hakote/internal/logging"
)

// SubjectPrefix starts every problem mail subject
const SubjectPrefix = "[하코테] 오늘의 문제: "

// run carries what every subscription task of one run shares
type run struct {
	date     string
	dryRun   bool
	log      Logger
	state    *State
	problems map[string][]Problem
}

// deliver moves one subscription through today's delivery states.
// Transitions (live mode):
//
//	sent            -> already sent, no transport call
//	failed / queued -> mark queued, send
//	no record       -> send
//	send ok         -> upsert sent, advance progress
//	send failed     -> queued record (if any) marked failed
//
// Dry runs skip the sent check and never write.
func (e *Engine) deliver(ctx context.Context, r *run, sub Subscription) (res Sent, err error) {
	who := logging.RedactEmail(sub.Email)
	live := !r.dryRun
	queued := false
	sent := false

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic processing subscription %s: %v", sub.ID, rec)
			r.log.Errorf(err, "Subscription processing crashed: %s (%s)", who, sub.ProblemListName)
		}
		if err != nil && live && queued && !sent {
			e.markFailed(ctx, r, sub, who)
		}
	}()

	existing, hasDelivery := r.state.DeliveryFor(sub.ID)
	if live && hasDelivery {
		switch existing.Status {
		case StatusSent:
			r.log.Infof("Already sent today: %s (%s)", who, sub.ProblemListName)
			return Sent{AlreadySent: true}, nil
		case StatusFailed, StatusQueued:
			r.log.Infof("Retrying %s delivery: %s (%s)", existing.Status, who, sub.ProblemListName)
		}
	}

	progress, hasProgress := r.state.ProgressFor(sub.ID)
	index := progress.CurrentIndex

	problem, next, err := SelectProblem(r.problems[sub.ProblemListID], index)
	if err != nil {
		r.log.Errorf(err, "No problem to send for %s (%s)", who, sub.ProblemListName)
		return Sent{}, err
	}
	r.log.Infof("Problem #%d for %s (%s): %s%s", next, who, sub.ProblemListName, problem.Title, weekSuffix(problem.Week))

	if live {
		if !hasProgress {
			if err := e.store.EnsureProgress(ctx, sub.ID); err != nil {
				r.log.Errorf(err, "Failed to create progress for %s", who)
			}
		}
		if hasDelivery && existing.Status != StatusSent {
			if err := e.store.UpdateDeliveryStatus(ctx, sub.ID, r.date, StatusQueued); err != nil {
				r.log.Errorf(err, "Failed to mark delivery queued for %s", who)
				return Sent{}, fmt.Errorf("mark queued: %w", err)
			}
			queued = true
		}
	} else if !hasProgress {
		r.log.Testf("New subscription %s (%s) starts at problem 0", who, sub.ProblemListName)
	}

	email := Email{
		To:             sub.Email,
		Subject:        SubjectPrefix + problem.Title,
		Title:          problem.Title,
		Difficulty:     problem.Difficulty,
		URL:            problem.URL,
		UnsubscribeURL: e.urls.SubscriptionURL(sub.ID),
	}

	if err := e.send(ctx, r, email); err != nil {
		r.log.Errorf(err, "Send failed: %s", who)
		return Sent{}, fmt.Errorf("send: %w", err)
	}
	sent = true
	r.log.Infof("Sent: %s", who)

	if !live {
		r.log.Testf("Dry run: skipped delivery and progress writes for %s", who)
		return Sent{}, nil
	}

	rec := DeliveryRecord{
		SubscriberID:   sub.SubscriberID,
		SubscriptionID: sub.ID,
		ProblemListID:  sub.ProblemListID,
		ProblemID:      problem.ID,
		Date:           r.date,
		Status:         StatusSent,
	}
	// The mail is out; a failed write below is reported, never resent.
	// The writes outlive ctx so a dropped caller cannot cause a resend.
	wctx := context.WithoutCancel(ctx)
	if err := e.store.UpsertDelivery(wctx, rec); err != nil {
		r.log.Errorf(err, "Failed to record sent delivery for %s (%s)", who, sub.ProblemListName)
	}
	if err := e.store.UpsertProgress(wctx, sub.ID, next, progress.TotalProblemsSent+1); err != nil {
		r.log.Errorf(err, "Failed to advance progress for %s (%s)", who, sub.ProblemListName)
	} else {
		r.log.Infof("Progress advanced for %s (%s) to %d", who, sub.ProblemListName, next)
	}

	return Sent{}, nil
}

// send calls the transport, bounding the whole call (retries included) by
// SendTimeout when one is configured
func (e *Engine) send(ctx context.Context, r *run, email Email) error {
	sender := e.sender
	if r.dryRun {
		sender = e.dryRunSender
	}
	if e.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SendTimeout)
		defer cancel()
	}
	return sender.Send(ctx, email)
}

func (e *Engine) markFailed(ctx context.Context, r *run, sub Subscription, who string) {
	if err := e.store.UpdateDeliveryStatus(context.WithoutCancel(ctx), sub.ID, r.date, StatusFailed); err != nil {
		r.log.Errorf(err, "Failed to mark delivery failed for %s", who)
	}
}

func weekSuffix(week *int) string {
	if week == nil {
		return ""
	}
	return fmt.Sprintf(" (week %d)", *week)
}
