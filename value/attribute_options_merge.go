package value

// PartialAttributeOptions is one tier of the §4.3 attribute option merge:
// inline options, the subscription-level SAPL.attributeFinderOptions
// variable, or (implicitly, via DefaultAttributeOptions) the PDP defaults.
// A nil field means "not specified at this tier" — distinct from an
// explicit zero — so MergeAttributeOptions can fall through to the next
// tier per option rather than per object.
type PartialAttributeOptions struct {
	InitialTimeoutMs *int64
	PollIntervalMs   *int64
	BackoffMs        *int64
	Retries          *int64
	Fresh            *bool
}

// MergeAttributeOptions folds tiers onto base in precedence order (the
// first tier with a non-nil field wins that field; a field left nil by
// every tier keeps base's value). Callers pass tiers highest-precedence
// first: inline, then subscription.
func MergeAttributeOptions(base ResolvedAttributeOptions, tiers ...PartialAttributeOptions) ResolvedAttributeOptions {
	resolved := base
	for _, t := range tiers {
		if t.InitialTimeoutMs != nil {
			resolved.InitialTimeoutMs = *t.InitialTimeoutMs
			break
		}
	}
	for _, t := range tiers {
		if t.PollIntervalMs != nil {
			resolved.PollIntervalMs = *t.PollIntervalMs
			break
		}
	}
	for _, t := range tiers {
		if t.BackoffMs != nil {
			resolved.BackoffMs = *t.BackoffMs
			break
		}
	}
	for _, t := range tiers {
		if t.Retries != nil {
			resolved.Retries = *t.Retries
			break
		}
	}
	for _, t := range tiers {
		if t.Fresh != nil {
			resolved.Fresh = *t.Fresh
			break
		}
	}
	return resolved
}
