package state

import (
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/store"
)

// Next is the stage transition function. It looks only at the current stage and the
// final metadata of the turn.
func Next(current store.Stage, meta store.ResponseMetadata) store.Stage {
	switch {
	case meta.Intent == store.IntentPricing && current != store.StageLeadCapture:
		return store.StageSolutionProposal
	case meta.Confidence < 0.5 && current == store.StageInitial:
		return store.StageInformationGathering
	case meta.Intent == store.IntentClarification:
		return store.StageInformationGathering
	case meta.Intent == store.IntentDemo || meta.Intent == store.IntentSupport:
		return store.StageSolutionProposal
	default:
		return current
	}
}

// Manager applies stage transitions to sessions and logs them.
type Manager struct {
	logger logger.ILogger
}

// NewManager creates a new state manager
func NewManager(log logger.ILogger) *Manager {
	return &Manager{logger: log}
}

// Advance moves the session to the stage chosen by Next.
func (m *Manager) Advance(session *store.Session, meta store.ResponseMetadata) store.Stage {
	from := session.Stage
	if from == "" {
		from = store.StageInitial
	}
	to := Next(from, meta)
	session.Stage = to

	if from != to {
		m.logger.Info("StateManager", "Conversation stage changed", map[string]interface{}{
			"session_id": session.ID,
			"from":       from,
			"to":         to,
			"intent":     meta.Intent,
		})
	}
	return to
}

// MarkLeadCaptured records that contact details were collected during this session.
func (m *Manager) MarkLeadCaptured(session *store.Session) {
	if session.Stage == store.StageLeadCapture {
		return
	}
	m.logger.Info("StateManager", "Conversation stage changed", map[string]interface{}{
		"session_id": session.ID,
		"from":       session.Stage,
		"to":         store.StageLeadCapture,
		"reason":     "lead_captured",
	})
	session.Stage = store.StageLeadCapture
}
