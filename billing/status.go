package billing

// Template and subscription statuses move through explicit transition
// tables; anything not listed is rejected with invalid_state.

type TemplateStatus string

const (
	TemplateActive    TemplateStatus = "active"
	TemplatePaused    TemplateStatus = "paused"
	TemplateCompleted TemplateStatus = "completed"
	TemplateCancelled TemplateStatus = "cancelled"
)

var templateTransitions = map[TemplateStatus][]TemplateStatus{
	TemplateActive: {TemplateActive, TemplatePaused, TemplateCompleted, TemplateCancelled},
	TemplatePaused: {TemplateActive, TemplateCancelled},
	// completed and cancelled are terminal
}

// CanTransitionTemplate reports whether from→to is an allowed template move.
// active→active is the "successful run before expiry" self-transition.
func CanTransitionTemplate(from, to TemplateStatus) bool {
	for _, allowed := range templateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionTrial:  {SubscriptionActive, SubscriptionExpired, SubscriptionCancelled},
	SubscriptionActive: {SubscriptionActive, SubscriptionExpired, SubscriptionCancelled},
}

func CanTransitionSubscription(from, to SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
