package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sunstrike-inc/sunstrike/internal/domain/proxy"
	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

// ReconcileSubscriptionsUseCase converges the proxy server onto the desired
// state recorded in the database. Each cycle is idempotent: directives are
// derived deterministically from stored credentials and every proxy mutation
// tolerates being replayed, so a crash between the proxy write and the
// database commit heals on the next run.
type ReconcileSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	controller       proxy.Controller
	links            *proxy.LinkGenerator
	emailDomain      string
	flow             string
	retainLink       bool
	logger           logger.Interface

	running atomic.Bool
}

func NewReconcileSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	controller proxy.Controller,
	links *proxy.LinkGenerator,
	emailDomain string,
	flow string,
	retainLink bool,
	log logger.Interface,
) *ReconcileSubscriptionsUseCase {
	return &ReconcileSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		controller:       controller,
		links:            links,
		emailDomain:      emailDomain,
		flow:             flow,
		retainLink:       retainLink,
		logger:           log.Named("reconciler"),
	}
}

// Execute runs one reconciliation cycle and returns the number of
// subscriptions it reconciled, link refreshes included. A failing selection
// query aborts the whole tick: once the repository is in doubt no further
// phase may commit, and the error is surfaced to the scheduler.
func (uc *ReconcileSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	if !uc.running.CompareAndSwap(false, true) {
		uc.logger.Debugw("reconcile cycle already in flight, skipping")
		return 0, nil
	}
	defer uc.running.Store(false)

	// Nothing below can succeed against a dead proxy, so bail out early and
	// let the next tick retry rather than walking every subscription.
	if err := uc.controller.EnsureHealthy(ctx); err != nil {
		uc.logger.Warnw("proxy server unhealthy, deferring cycle", "error", err)
		return 0, nil
	}

	processed := 0

	refreshed, err := uc.refreshLinks(ctx)
	processed += refreshed
	if err != nil {
		return processed, err
	}

	activated, err := uc.processActivations(ctx)
	processed += activated
	if err != nil {
		return processed, err
	}

	deactivated, err := uc.processDeactivations(ctx)
	processed += deactivated
	if err != nil {
		return processed, err
	}

	return processed, nil
}

// refreshLinks rewrites stored links that no longer match the configured
// server endpoint, so host or reality key changes propagate without
// reprovisioning anything.
func (uc *ReconcileSubscriptionsUseCase) refreshLinks(ctx context.Context) (int, error) {
	subs, err := uc.subscriptionRepo.FindProvisioned(ctx)
	if err != nil {
		uc.logger.Errorw("failed to load provisioned subscriptions", "error", err)
		return 0, fmt.Errorf("failed to load provisioned subscriptions: %w", err)
	}

	refreshed := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return refreshed, nil
		}

		profileUUID := sub.ProfileUUID()
		if profileUUID == nil {
			continue
		}

		expected := uc.links.Build(*profileUUID, sub.Username())
		if sub.Link() != nil && *sub.Link() == expected {
			continue
		}

		if err := uc.subscriptionRepo.UpdateLink(ctx, sub.ID(), expected); err != nil {
			if !errors.Is(err, subscription.ErrStateConflict) {
				uc.logger.Errorw("failed to refresh link", "subscription_id", sub.ID(), "error", err)
			}
			continue
		}

		uc.logger.Infow("connection link refreshed", "subscription_id", sub.ID(), "username", sub.Username())
		refreshed++
	}

	return refreshed, nil
}

func (uc *ReconcileSubscriptionsUseCase) processActivations(ctx context.Context) (int, error) {
	subs, err := uc.subscriptionRepo.FindPendingActivations(ctx)
	if err != nil {
		uc.logger.Errorw("failed to load pending activations", "error", err)
		return 0, fmt.Errorf("failed to load pending activations: %w", err)
	}

	activated := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return activated, nil
		}
		if uc.activate(ctx, sub) {
			activated++
		}
	}

	return activated, nil
}

// activate applies one profile and commits the result. Failures are isolated
// per subscription: a broken row never stops the rest of the batch.
func (uc *ReconcileSubscriptionsUseCase) activate(ctx context.Context, sub *subscription.Subscription) bool {
	log := uc.logger.With("subscription_id", sub.ID(), "username", sub.Username())

	directive, err := proxy.BuildDirective(sub.ID(), sub.Username(), sub.CredentialSecret(), uc.emailDomain, uc.flow)
	if err != nil {
		// this input can never provision; park it until an operator intervenes
		log.Warnw("subscription cannot be provisioned", "error", err)
		uc.markError(ctx, sub.ID(), err.Error())
		return false
	}

	if err := uc.controller.Apply(ctx, directive); err != nil {
		switch {
		case errors.Is(err, proxy.ErrConfigRejected):
			log.Warnw("proxy rejected profile", "error", err)
			uc.markError(ctx, sub.ID(), err.Error())
		case errors.Is(err, proxy.ErrUnreachable), errors.Is(err, proxy.ErrReloadTimeout):
			// transient, the next cycle retries from the same state
			log.Warnw("profile application deferred", "error", err)
		default:
			log.Errorw("failed to apply profile", "error", err)
		}
		return false
	}

	link := uc.links.Build(directive.UUID, sub.Username())

	if err := uc.subscriptionRepo.MarkProvisioned(ctx, sub.ID(), link, directive.UUID); err != nil {
		switch {
		case errors.Is(err, subscription.ErrStateConflict):
			// another writer moved the state while we held the profile; the
			// next cycle re-evaluates from the new state
			log.Warnw("provision commit skipped, state changed concurrently")
		case errors.Is(err, subscription.ErrSubscriptionNotFound):
			// row deleted mid-flight, do not leave an orphan profile behind
			log.Warnw("subscription vanished during provisioning, removing profile")
			if removeErr := uc.controller.Remove(ctx, directive.UUID); removeErr != nil {
				log.Errorw("failed to remove orphan profile", "error", removeErr)
			}
		default:
			log.Errorw("failed to commit provisioning", "error", err)
		}
		return false
	}

	log.Infow("subscription provisioned", "profile_uuid", directive.UUID)
	return true
}

func (uc *ReconcileSubscriptionsUseCase) processDeactivations(ctx context.Context) (int, error) {
	subs, err := uc.subscriptionRepo.FindPendingDeactivations(ctx)
	if err != nil {
		uc.logger.Errorw("failed to load pending deactivations", "error", err)
		return 0, fmt.Errorf("failed to load pending deactivations: %w", err)
	}

	deactivated := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return deactivated, nil
		}
		if uc.deactivate(ctx, sub) {
			deactivated++
		}
	}

	return deactivated, nil
}

func (uc *ReconcileSubscriptionsUseCase) deactivate(ctx context.Context, sub *subscription.Subscription) bool {
	log := uc.logger.With("subscription_id", sub.ID(), "username", sub.Username())

	// Remove the profile that was actually applied. Falling back to a derived
	// UUID only matters for rows provisioned before the applied UUID was
	// recorded; after a credential rotation the derived value would name the
	// wrong profile.
	profileUUID := ""
	if sub.ProfileUUID() != nil {
		profileUUID = *sub.ProfileUUID()
	} else {
		profileUUID = proxy.DeriveProfileUUID(sub.Username(), sub.CredentialSecret())
	}

	if err := uc.controller.Remove(ctx, profileUUID); err != nil {
		switch {
		case errors.Is(err, proxy.ErrUnreachable), errors.Is(err, proxy.ErrReloadTimeout):
			log.Warnw("profile removal deferred", "error", err)
			return false
		case errors.Is(err, proxy.ErrConfigRejected):
			// the config may reject for reasons unrelated to this profile;
			// only proceed if the profile is verifiably gone
			present, checkErr := uc.controller.Contains(ctx, profileUUID)
			if checkErr != nil || present {
				log.Errorw("failed to remove profile", "error", err)
				return false
			}
		default:
			log.Errorw("failed to remove profile", "error", err)
			return false
		}
	}

	if err := uc.subscriptionRepo.MarkDeprovisioned(ctx, sub.ID(), !uc.retainLink); err != nil {
		switch {
		case errors.Is(err, subscription.ErrStateConflict):
			log.Warnw("deprovision commit skipped, state changed concurrently")
		case errors.Is(err, subscription.ErrSubscriptionNotFound):
			log.Warnw("subscription vanished during deprovisioning")
		default:
			log.Errorw("failed to commit deprovisioning", "error", err)
		}
		return false
	}

	log.Infow("subscription deprovisioned", "profile_uuid", profileUUID)
	return true
}

func (uc *ReconcileSubscriptionsUseCase) markError(ctx context.Context, id uint, reason string) {
	if err := uc.subscriptionRepo.MarkError(ctx, id, reason); err != nil {
		uc.logger.Errorw("failed to record provisioning failure", "subscription_id", id, "error", err)
	}
}
