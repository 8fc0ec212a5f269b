package usecase

import (
	"context"
	"fmt"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

// resolvePlanLinks loads the active plans behind refs, keeping the ref order and discounts.
func resolvePlanLinks(ctx context.Context, plans repository.PlanRepository, refs []repository.PlanRef) ([]model.PlanLink, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.PlanID)
	}
	found, err := plans.FindActiveByIDs(ctx, repository.NoTX, ids)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	byID := make(map[string]*model.Plan, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	links := make([]model.PlanLink, 0, len(refs))
	for _, r := range refs {
		if p, ok := byID[r.PlanID]; ok {
			links = append(links, model.PlanLink{Plan: p, DiscountPercent: r.DiscountPercent})
		}
	}
	return links, nil
}

func plainRefs(ids []string) []repository.PlanRef {
	refs := make([]repository.PlanRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, repository.PlanRef{PlanID: id})
	}
	return refs
}
