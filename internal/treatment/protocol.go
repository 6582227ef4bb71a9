package treatment

import "github.com/rendis/vetassist/pkg/schema"

// DefaultProtocol returns the general protocol. Prices are in Toman.
func DefaultProtocol() Protocol {
	return Protocol{
		Medications: []schema.Medication{
			{
				ID: "med1", Name: "Amoxicillin", Form: schema.FormTablet,
				Dosage: "250 mg", Frequency: "every 12 hours", Duration: "7 days",
				SideEffects: []string{"Mild nausea", "Possible diarrhea"},
				Price:       85000,
			},
			{
				ID: "med2", Name: "Dexamethasone", Form: schema.FormInjection,
				Dosage: "0.5 ml", Frequency: "once", Duration: "1 day",
				SideEffects: []string{"Increased thirst", "Restlessness"},
				Price:       120000,
			},
			{
				ID: "med3", Name: "Tetracycline ointment", Form: schema.FormOintment,
				Dosage: "thin layer", Frequency: "every 8 hours", Duration: "5 days",
				SideEffects: []string{"Local itching"},
				Price:       45000,
			},
		},
		CareSteps: []schema.CareStep{
			{ID: "step1", Title: "Complete rest", Description: "Keep the animal resting in a calm, warm place.", Duration: "24-48 hours", Important: true},
			{ID: "step2", Title: "Constant hydration", Description: "Fresh, clean water available at all times.", Duration: "ongoing", Important: true},
			{ID: "step3", Title: "Soft diet", Description: "Easily digested food such as boiled chicken and rice.", Duration: "3-5 days", Important: true},
			{ID: "step4", Title: "Temperature checks", Description: "Measure body temperature every 6 hours.", Duration: "2 days"},
			{ID: "step5", Title: "Isolation", Description: "Keep apart from other animals to prevent transmission.", Duration: "7 days", Important: true},
		},
	}
}
