package schema

// Event type constants for the session event log and the stream hub.
const (
	EventSessionCreated   = "session_created"
	EventSessionReset     = "session_reset"
	EventSessionDiscarded = "session_discarded"

	EventStepChanged = "step_changed"

	EventAnimalSelected = "animal_selected"
	EventSymptomToggled = "symptom_toggled"
	EventImageSet       = "image_set"
	EventImageCleared   = "image_cleared"

	EventAnalysisStarted   = "analysis_started"
	EventAnalysisProgress  = "analysis_progress"
	EventAnalysisSucceeded = "analysis_succeeded"
	EventAnalysisFailed    = "analysis_failed"
	EventAnalysisCancelled = "analysis_cancelled"
	EventAnalysisDiscarded = "analysis_discarded"

	EventCircuitBreakerOpen   = "circuit_breaker_open"
	EventCircuitBreakerClosed = "circuit_breaker_closed"
)
