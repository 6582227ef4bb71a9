package schema

// Step is one stage of the fixed diagnosis wizard sequence.
type Step string

const (
	StepAnimalSelection  Step = "animal_selection"
	StepSymptomSelection Step = "symptom_selection"
	StepImageUpload      Step = "image_upload"
	StepAnalysisResult   Step = "analysis_result"
	StepTreatmentPlan    Step = "treatment_plan"
)

var stepOrder = []Step{
	StepAnimalSelection,
	StepSymptomSelection,
	StepImageUpload,
	StepAnalysisResult,
	StepTreatmentPlan,
}

// Steps returns the wizard steps in sequence order.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// Index returns the zero-based position of s in the sequence, or -1 if s is not a step.
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five wizard steps.
func (s Step) Valid() bool {
	return s.Index() >= 0
}

// AnimalType is the closed set of species the wizard accepts.
type AnimalType string

const (
	AnimalDog    AnimalType = "dog"
	AnimalCat    AnimalType = "cat"
	AnimalBird   AnimalType = "bird"
	AnimalRabbit AnimalType = "rabbit"
	AnimalOther  AnimalType = "other"
)

// AnimalTypes returns every accepted animal type.
func AnimalTypes() []AnimalType {
	return []AnimalType{AnimalDog, AnimalCat, AnimalBird, AnimalRabbit, AnimalOther}
}

// Valid reports whether a is in the closed animal type set.
func (a AnimalType) Valid() bool {
	switch a {
	case AnimalDog, AnimalCat, AnimalBird, AnimalRabbit, AnimalOther:
		return true
	default:
		return false
	}
}

// Urgency grades how soon the animal needs care.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	default:
		return false
	}
}

// ImageRef is an opaque handle to an uploaded image. The wizard never inspects it.
type ImageRef string

// DiagnosisResult is what a diagnosis engine produces for one analysis run.
type DiagnosisResult struct {
	Disease            string   `json:"disease" yaml:"disease"`
	Confidence         float64  `json:"confidence" yaml:"confidence"`
	Description        string   `json:"description" yaml:"description"`
	Urgency            Urgency  `json:"urgency" yaml:"urgency"`
	RecommendedActions []string `json:"recommended_actions,omitempty" yaml:"recommended_actions,omitempty"`
}

// Clone returns a deep copy of r.
func (r *DiagnosisResult) Clone() *DiagnosisResult {
	if r == nil {
		return nil
	}
	cp := *r
	if r.RecommendedActions != nil {
		cp.RecommendedActions = append([]string(nil), r.RecommendedActions...)
	}
	return &cp
}

// AnalysisStatus is the lifecycle state of the analysis runner.
type AnalysisStatus string

const (
	AnalysisIdle      AnalysisStatus = "idle"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisSucceeded AnalysisStatus = "succeeded"
	AnalysisFailed    AnalysisStatus = "failed"
)

// AnalysisOutcome records how the most recent run ended.
type AnalysisOutcome string

const (
	OutcomeNone      AnalysisOutcome = "none"
	OutcomeSucceeded AnalysisOutcome = "succeeded"
	OutcomeFailed    AnalysisOutcome = "failed"
	OutcomeCancelled AnalysisOutcome = "cancelled"
)

// AnalysisState is the observable state of the analysis runner.
type AnalysisState struct {
	Status   AnalysisStatus  `json:"status"`
	Progress int             `json:"progress"`
	Outcome  AnalysisOutcome `json:"outcome"`
	Error    string          `json:"error,omitempty"`
	Run      uint64          `json:"run"`
}

// Terminal reports whether the state is not running.
func (s AnalysisState) Terminal() bool {
	return s.Status != AnalysisRunning
}
