// Package actors hosts the concurrent workload for the stress harness. Each
// actor loops one workflow role against the real service layer so row-lock
// serialization, eligibility checks, and the commit step are exercised under
// contention rather than replayed as raw SQL.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"tierflow/auth"
	"tierflow/registration"
)

// Env bundles the wired service layer and the identities the actors act as.
type Env struct {
	Service  *registration.Service
	Executor *registration.Executor

	Requester auth.Actor
	Manager   auth.Actor
	Director  auth.Actor
	Moderator auth.Actor

	CustomerIDs []string
	TierID      string
}

// benign reports whether the error is an expected outcome under contention:
// another actor won the race, the record is no longer eligible, or the chaos
// goroutine killed the backend mid-statement. Invariants are enforced by the
// oracles, not by actor liveness.
func benign(err error) bool {
	return errors.Is(err, registration.ErrPrecondition) ||
		errors.Is(err, registration.ErrValidation) ||
		errors.Is(err, registration.ErrNotFound) ||
		errors.Is(err, registration.ErrPersistence)
}

func sleepJitter(base, spread int) {
	time.Sleep(time.Duration(base+rand.Intn(spread)) * time.Millisecond)
}

// Requester creates registrations, amends them with remarks, and cancels a
// share of its own pending ones.
func Requester(ctx context.Context, env Env, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		customerID := env.CustomerIDs[rand.Intn(len(env.CustomerIDs))]
		minQ := int64(rand.Intn(500))
		created, err := env.Service.Create(ctx, env.Requester, registration.CreateParams{
			CustomerID:      customerID,
			TierID:          env.TierID,
			QuotaMinQuarter: minQ,
			QuotaMaxQuarter: minQ + int64(rand.Intn(1000)),
			QuotaMinYear:    minQ * 4,
			QuotaMaxYear:    (minQ + 1000) * 4,
			EffectiveDate:   time.Now().AddDate(0, 0, rand.Intn(3)-1),
		})
		if err != nil {
			if !benign(err) {
				return fmt.Errorf("requester create: %w", err)
			}
			sleepJitter(10, 20)
			continue
		}

		switch rand.Intn(4) {
		case 0:
			if _, err := env.Service.Cancel(ctx, env.Requester, registration.CancelParams{
				ID:     created.ID,
				Reason: "withdrawn during stress run",
			}); err != nil && !benign(err) {
				return fmt.Errorf("requester cancel: %w", err)
			}
		case 1:
			if _, err := env.Service.Negotiate(ctx, env.Requester, created.ID, "volumes under discussion"); err != nil && !benign(err) {
				return fmt.Errorf("requester negotiate: %w", err)
			}
		}

		sleepJitter(10, 30)
	}
}

// Manager reviews pending registrations with a mix of decisions.
func Manager(ctx context.Context, env Env, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		id, err := pickByStatus(ctx, env, registration.StatusPendingReview)
		if err != nil {
			return fmt.Errorf("manager list: %w", err)
		}
		if id == "" {
			sleepJitter(20, 40)
			continue
		}

		decision := registration.DecisionApprove
		switch rand.Intn(10) {
		case 0:
			decision = registration.DecisionReject
		case 1:
			decision = registration.DecisionNeedsInfo
		}

		if _, err := env.Service.ManagerDecide(ctx, env.Manager, registration.DecideParams{
			ID:       id,
			Decision: decision,
			Reason:   "reviewed under load",
		}); err != nil && !benign(err) {
			return fmt.Errorf("manager decide: %w", err)
		}

		sleepJitter(15, 35)
	}
}

// Senior decides manager-approved registrations and occasionally overrides a
// still-pending one.
func Senior(ctx context.Context, env Env, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		override := rand.Intn(10) == 0
		status := registration.StatusPendingApproval
		if override {
			status = registration.StatusPendingReview
		}

		id, err := pickByStatus(ctx, env, status)
		if err != nil {
			return fmt.Errorf("senior list: %w", err)
		}
		if id == "" {
			sleepJitter(20, 40)
			continue
		}

		decision := registration.DecisionApprove
		if rand.Intn(8) == 0 {
			decision = registration.DecisionReject
		}

		if _, err := env.Service.SeniorDecide(ctx, env.Director, registration.SeniorDecideParams{
			ID:       id,
			Decision: decision,
			Reason:   "final call under load",
			Override: override,
		}); err != nil && !benign(err) {
			return fmt.Errorf("senior decide: %w", err)
		}

		sleepJitter(20, 40)
	}
}

// Returner sends stalled registrations back to the requester.
func Returner(ctx context.Context, env Env, stop <-chan struct{}) error {
	statuses := []registration.Status{registration.StatusPendingApproval, registration.StatusNeedsInfo}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		id, err := pickByStatus(ctx, env, statuses[rand.Intn(len(statuses))])
		if err != nil {
			return fmt.Errorf("returner list: %w", err)
		}
		if id == "" {
			sleepJitter(40, 60)
			continue
		}

		if _, err := env.Service.ReturnToSender(ctx, env.Manager, registration.ReturnParams{
			ID:     id,
			Reason: "send back for amendment",
		}); err != nil && !benign(err) {
			return fmt.Errorf("returner: %w", err)
		}

		sleepJitter(40, 80)
	}
}

// Moderator prunes negotiation entries from random registrations.
func Moderator(ctx context.Context, env Env, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		result, err := env.Service.List(ctx, registration.Filters{PageSize: 20})
		if err != nil {
			return fmt.Errorf("moderator list: %w", err)
		}
		if len(result.Items) > 0 {
			target := result.Items[rand.Intn(len(result.Items))]
			if _, err := env.Service.DeleteNegotiationEntry(ctx, env.Moderator, target.ID, rand.Intn(3)); err != nil && !benign(err) {
				return fmt.Errorf("moderator delete entry: %w", err)
			}
		}

		sleepJitter(100, 100)
	}
}

// Runner drives the commit step in a tight loop so it races the inline
// post-approval run and itself.
func Runner(ctx context.Context, env Env, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		if _, err := env.Executor.ExecuteApproved(ctx); err != nil && !benign(err) {
			return fmt.Errorf("executor run: %w", err)
		}

		sleepJitter(100, 200)
	}
}

func pickByStatus(ctx context.Context, env Env, status registration.Status) (string, error) {
	result, err := env.Service.List(ctx, registration.Filters{Status: status, PageSize: 10})
	if err != nil {
		if benign(err) {
			return "", nil
		}
		return "", err
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[rand.Intn(len(result.Items))].ID, nil
}
