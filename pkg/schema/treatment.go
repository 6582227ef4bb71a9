package schema

// MedicationForm is the dosage form of a medication.
type MedicationForm string

const (
	FormTablet    MedicationForm = "tablet"
	FormSyrup     MedicationForm = "syrup"
	FormInjection MedicationForm = "injection"
	FormOintment  MedicationForm = "ointment"
)

// Medication is one suggested drug in a treatment plan.
type Medication struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Form        MedicationForm `json:"form" yaml:"form"`
	Dosage      string         `json:"dosage" yaml:"dosage"`
	Frequency   string         `json:"frequency" yaml:"frequency"`
	Duration    string         `json:"duration" yaml:"duration"`
	SideEffects []string       `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`
	Price       int64          `json:"price" yaml:"price"`
}

// CareStep is one home-care instruction in a treatment plan.
type CareStep struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Duration    string `json:"duration" yaml:"duration"`
	Important   bool   `json:"important" yaml:"important"`
}

// TreatmentPlan is the suggestion shown at the final wizard step.
type TreatmentPlan struct {
	Disease     string       `json:"disease"`
	Urgency     Urgency      `json:"urgency"`
	Emergency   bool         `json:"emergency"`
	Medications []Medication `json:"medications"`
	CareSteps   []CareStep   `json:"care_steps"`
	FollowUp    string       `json:"follow_up"`
	TotalPrice  int64        `json:"total_price"`
	Disclaimer  string       `json:"disclaimer"`
}
