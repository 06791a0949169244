package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/store"
)

type change int

const (
	unchanged change = iota
	created
	updated
)

// reconcile creates or updates the candidate behind an accepted extraction and,
// when a job is given, refreshes the candidate's link to it.
func reconcile(ctx context.Context, st store.Store, scope store.Scope, job *ai.Job, e profile.Extraction) (change, error) {
	incoming := store.FromProfile(e.Profile)

	result := unchanged
	candidate, err := st.FindByLinkedIn(ctx, scope, incoming.LinkedInURL)
	switch {
	case errors.Is(err, store.ErrNotFound):
		incoming.OwnerID = scope.Owner()
		if err := st.Create(ctx, &incoming); err != nil {
			return unchanged, fmt.Errorf("create candidate: %w", err)
		}
		candidate = &incoming
		result = created
	case err != nil:
		return unchanged, fmt.Errorf("find candidate: %w", err)
	default:
		if merge(candidate, incoming) {
			if err := st.Update(ctx, candidate); err != nil {
				return unchanged, fmt.Errorf("update candidate: %w", err)
			}
			result = updated
		}
	}

	if job != nil && job.ID != "" {
		link := store.JobLink{
			JobID:         job.ID,
			CandidateID:   candidate.ID,
			Adherence:     e.Adherence,
			Justification: e.Justification,
		}
		if err := st.UpsertJobLink(ctx, link); err != nil {
			return result, fmt.Errorf("link candidate to job: %w", err)
		}
	}

	return result, nil
}

// merge copies incoming values over stored ones and reports whether anything
// changed. Empty incoming text keeps the stored text. Decimal fields always
// take the incoming value, so a missing value clears the stored one.
func merge(stored *store.Candidate, incoming store.Candidate) bool {
	changed := false

	texts := []struct {
		stored   *string
		incoming string
	}{
		{&stored.Name, incoming.Name},
		{&stored.CurrentTitle, incoming.CurrentTitle},
		{&stored.CurrentCompany, incoming.CurrentCompany},
		{&stored.Location, incoming.Location},
		{&stored.LinkedInURL, incoming.LinkedInURL},
		{&stored.Summary, incoming.Summary},
		{&stored.Skills, incoming.Skills},
		{&stored.Technologies, incoming.Technologies},
		{&stored.Languages, incoming.Languages},
		{&stored.Certifications, incoming.Certifications},
		{&stored.Seniority, incoming.Seniority},
	}
	for _, f := range texts {
		if f.incoming == "" || *f.stored == f.incoming {
			continue
		}
		*f.stored = f.incoming
		changed = true
	}

	decimals := []struct {
		stored   **float64
		incoming *float64
	}{
		{&stored.ExperienceYears, incoming.ExperienceYears},
		{&stored.AverageTenureYears, incoming.AverageTenureYears},
	}
	for _, f := range decimals {
		if sameYears(*f.stored, f.incoming) {
			continue
		}
		*f.stored = f.incoming
		changed = true
	}

	return changed
}

func sameYears(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return profile.RoundYears(*a) == profile.RoundYears(*b)
}
