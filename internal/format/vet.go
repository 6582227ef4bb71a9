package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/rendis/vetassist/internal/batch"
	"github.com/rendis/vetassist/internal/catalog"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/pkg/schema"
)

// Diagnosis renders a diagnosis result as a two-column table.
func Diagnosis(m Mode, r *schema.DiagnosisResult) string {
	tb := NewTable(m)
	tb.Title("Diagnosis")
	tb.Row("Disease", r.Disease)
	tb.Row("Confidence", Percent(r.Confidence))
	tb.Row("Urgency", string(r.Urgency))
	if r.Description != "" {
		tb.Row("Description", r.Description)
	}
	for i, a := range r.RecommendedActions {
		label := ""
		if i == 0 {
			label = "Recommended"
		}
		tb.Row(label, fmt.Sprintf("%d. %s", i+1, a))
	}
	tb.Columns(ColumnConfig{Number: 2, MaxWidth: 72})
	return tb.String()
}

// TreatmentPlan renders the medication and care step tables of a plan,
// followed by the follow-up advice and disclaimer.
func TreatmentPlan(m Mode, p *schema.TreatmentPlan) string {
	var b strings.Builder

	if p.Emergency {
		b.WriteString("!! EMERGENCY: seek veterinary care immediately !!\n\n")
	}

	meds := NewTable(m)
	meds.Title("Medications: " + p.Disease)
	meds.Header("Name", "Form", "Dosage", "Frequency", "Duration", "Price")
	for _, med := range p.Medications {
		meds.Row(med.Name, string(med.Form), med.Dosage, med.Frequency, med.Duration, Price(med.Price))
	}
	meds.Footer("", "", "", "", "Total", Price(p.TotalPrice))
	meds.Columns(ColumnConfig{Number: 6, Align: AlignRight})
	b.WriteString(meds.String())
	b.WriteString("\n\n")

	care := NewTable(m)
	care.Title("Home care")
	care.Header("", "Step", "Duration", "Details")
	for _, st := range p.CareSteps {
		mark := ""
		if st.Important {
			mark = "!"
		}
		care.Row(mark, st.Title, st.Duration, st.Description)
	}
	care.Columns(ColumnConfig{Number: 4, MaxWidth: 60})
	b.WriteString(care.String())
	b.WriteString("\n\n")

	b.WriteString("Follow-up: " + p.FollowUp + "\n")
	if p.Disclaimer != "" {
		b.WriteString(p.Disclaimer + "\n")
	}
	return b.String()
}

// History renders saved diagnoses, newest first as stored.
func History(m Mode, ds []*store.Diagnosis) string {
	tb := NewTable(m)
	tb.Header("When", "Animal", "Symptoms", "Disease", "Confidence", "Urgency", "ID")
	for _, d := range ds {
		tb.Row(
			d.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(d.AnimalType),
			Truncate(strings.Join(d.Symptoms, ", "), 40),
			d.Result.Disease,
			Percent(d.Result.Confidence),
			string(d.Result.Urgency),
			d.ID,
		)
	}
	tb.Footer("", "", "", "", "", "Total", len(ds))
	tb.Columns(ColumnConfig{Number: 5, Align: AlignRight})
	return tb.String()
}

// Runs renders replayed analysis runs of one session.
func Runs(m Mode, runs []*store.RunSummary) string {
	tb := NewTable(m)
	tb.Header("Run", "Outcome", "Progress", "Started", "Duration", "Error")
	for _, r := range runs {
		outcome := string(r.Outcome)
		if r.Outcome == "" || r.Outcome == schema.OutcomeNone {
			outcome = "running"
		}
		if r.Discarded {
			outcome += " (discarded)"
		}
		duration := "-"
		if r.CompletedAt != nil {
			duration = Duration(time.Duration(r.DurationMs) * time.Millisecond)
		}
		tb.Row(r.Run, outcome, fmt.Sprintf("%d%%", r.Progress), r.StartedAt.Local().Format("15:04:05"), duration, r.Error)
	}
	tb.Columns(ColumnConfig{Number: 6, MaxWidth: 60})
	return tb.String()
}

// Catalog renders the animal and symptom catalogs.
func Catalog(m Mode, c *catalog.Catalog) string {
	animals := NewTable(m)
	animals.Title("Animals")
	animals.Header("Type", "Name", "Local name", "Breeds")
	for _, a := range c.Animals() {
		animals.Row(string(a.Type), a.Name, a.LocalName, strings.Join(a.Breeds, ", "))
	}
	animals.Columns(ColumnConfig{Number: 4, MaxWidth: 60})

	symptoms := NewTable(m)
	symptoms.Title("Symptoms")
	symptoms.Header("ID", "Name", "Local name", "Category", "Severity")
	for _, s := range c.Symptoms() {
		symptoms.Row(s.ID, s.Name, s.LocalName, string(s.Category), string(s.Severity))
	}

	return animals.String() + "\n\n" + symptoms.String()
}

// BatchReport renders one row per case plus pass/fail totals.
func BatchReport(m Mode, r *batch.Report) string {
	tb := NewTable(m)
	tb.Header("Case", "Status", "Disease", "Confidence", "Urgency", "Time", "Notes")
	for _, res := range r.Results {
		disease, conf, urgency := "-", "-", "-"
		if res.Result != nil {
			disease = res.Result.Disease
			conf = Percent(res.Result.Confidence)
			urgency = string(res.Result.Urgency)
		}
		notes := res.Error
		if len(res.Mismatches) > 0 {
			notes = strings.Join(res.Mismatches, "; ")
		}
		tb.Row(res.Name, string(res.Status), disease, conf, urgency, Duration(res.Duration), notes)
	}
	tb.Footer("", fmt.Sprintf("%d passed", r.Passed), fmt.Sprintf("%d failed", r.Failed), fmt.Sprintf("%d errors", r.Errored), "", "", BoolMark(r.OK()))
	tb.Columns(ColumnConfig{Number: 7, MaxWidth: 60})
	return tb.String()
}
