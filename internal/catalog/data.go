package catalog

import "github.com/rendis/vetassist/pkg/schema"

var defaultAnimals = []Animal{
	{Type: schema.AnimalDog, Name: "Dog", LocalName: "سگ",
		Breeds: []string{"Pomeranian", "German Shepherd", "Golden Retriever", "Poodle", "Terrier"}},
	{Type: schema.AnimalCat, Name: "Cat", LocalName: "گربه",
		Breeds: []string{"Persian", "Siamese", "Maine Coon", "Scottish Fold", "British Shorthair"}},
	{Type: schema.AnimalBird, Name: "Bird", LocalName: "پرنده",
		Breeds: []string{"Budgerigar", "Canary", "Parrot", "African Grey", "Macaw"}},
	{Type: schema.AnimalRabbit, Name: "Rabbit", LocalName: "خرگوش",
		Breeds: []string{"Dutch", "Lop Ear", "Mini Lop", "Rex", "Angora"}},
	{Type: schema.AnimalOther, Name: "Other", LocalName: "سایر", Breeds: []string{}},
}

var defaultSymptoms = []Symptom{
	{ID: "fatigue", Name: "Fatigue and lethargy", LocalName: "خستگی و بی‌حالی", Category: CategoryGeneral, Severity: SeverityMild},
	{ID: "fever", Name: "Fever", LocalName: "تب", Category: CategoryGeneral, Severity: SeverityModerate},
	{ID: "appetite-loss", Name: "Loss of appetite", LocalName: "کاهش اشتها", Category: CategoryGeneral, Severity: SeverityMild},
	{ID: "weight-loss", Name: "Weight loss", LocalName: "کاهش وزن", Category: CategoryGeneral, Severity: SeverityModerate},
	{ID: "thirst", Name: "Excessive thirst", LocalName: "تشنگی بیش از حد", Category: CategoryGeneral, Severity: SeverityMild},

	{ID: "vomiting", Name: "Vomiting", LocalName: "استفراغ", Category: CategoryDigestive, Severity: SeverityModerate},
	{ID: "diarrhea", Name: "Diarrhea", LocalName: "اسهال", Category: CategoryDigestive, Severity: SeverityModerate},
	{ID: "constipation", Name: "Constipation", LocalName: "یبوست", Category: CategoryDigestive, Severity: SeverityMild},
	{ID: "abdominal-pain", Name: "Abdominal pain", LocalName: "درد شکم", Category: CategoryDigestive, Severity: SeverityModerate},
	{ID: "bloating", Name: "Bloating", LocalName: "نفخ", Category: CategoryDigestive, Severity: SeverityMild},

	{ID: "cough", Name: "Cough", LocalName: "سرفه", Category: CategoryRespiratory, Severity: SeverityMild},
	{ID: "sneeze", Name: "Sneezing", LocalName: "عطسه", Category: CategoryRespiratory, Severity: SeverityMild},
	{ID: "nasal-discharge", Name: "Nasal discharge", LocalName: "ترشح بینی", Category: CategoryRespiratory, Severity: SeverityMild},
	{ID: "breathing-difficulty", Name: "Difficulty breathing", LocalName: "تنفس مشکل", Category: CategoryRespiratory, Severity: SeveritySevere},
	{ID: "wheezing", Name: "Wheezing", LocalName: "خس خس سینه", Category: CategoryRespiratory, Severity: SeverityModerate},

	{ID: "itching", Name: "Itching", LocalName: "خارش پوست", Category: CategorySkin, Severity: SeverityMild},
	{ID: "hair-loss", Name: "Hair loss", LocalName: "ریزش مو", Category: CategorySkin, Severity: SeverityMild},
	{ID: "rash", Name: "Rash and spots", LocalName: "جوش و دانه", Category: CategorySkin, Severity: SeverityMild},
	{ID: "wounds", Name: "Wounds", LocalName: "زخم و جراحت", Category: CategorySkin, Severity: SeverityModerate},
	{ID: "swelling", Name: "Swelling", LocalName: "تورم", Category: CategorySkin, Severity: SeverityModerate},

	{ID: "seizures", Name: "Seizures", LocalName: "تشنج", Category: CategoryNeurological, Severity: SeveritySevere},
	{ID: "tremors", Name: "Tremors", LocalName: "لرزش", Category: CategoryNeurological, Severity: SeverityModerate},
	{ID: "paralysis", Name: "Paralysis", LocalName: "فلجی", Category: CategoryNeurological, Severity: SeveritySevere},
	{ID: "confusion", Name: "Confusion", LocalName: "گیجی", Category: CategoryNeurological, Severity: SeverityModerate},
	{ID: "aggression", Name: "Aggression", LocalName: "پرخاشگری", Category: CategoryNeurological, Severity: SeverityModerate},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultAnimals, defaultSymptoms)
	if err != nil {
		panic(err)
	}
	return c
}
