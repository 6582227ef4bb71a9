package diagram

import (
	"fmt"

	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/schema"
)

var stepLabels = map[schema.Step]string{
	schema.StepAnimalSelection:  "Animal",
	schema.StepSymptomSelection: "Symptoms",
	schema.StepImageUpload:      "Image",
	schema.StepAnalysisResult:   "Analysis",
	schema.StepTreatmentPlan:    "Treatment",
}

// Build converts a session snapshot into a DiagramModel.
// Steps before the current one are done, later ones pending. The analysis
// node reflects the runner state whenever a run has happened.
func Build(snap wizard.Snapshot) *DiagramModel {
	model := &DiagramModel{Title: "Session " + snap.ID}
	current := snap.Step.Index()

	steps := schema.Steps()
	for i, step := range steps {
		node := &Node{
			ID:     string(step),
			Label:  stepLabels[step],
			Detail: stepDetail(step, snap),
			Status: StatusPending,
		}
		switch {
		case i < current:
			node.Status = StatusDone
		case i == current:
			node.Status = StatusCurrent
		}
		if step == schema.StepAnalysisResult {
			node.Shape = ShapeHexagon
			switch snap.Analysis.Status {
			case schema.AnalysisRunning:
				node.Status = StatusRunning
			case schema.AnalysisFailed:
				node.Status = StatusFailed
			}
		}
		model.Nodes = append(model.Nodes, node)

		if i > 0 {
			edge := Edge{From: string(steps[i-1]), To: string(step)}
			if step == schema.StepAnalysisResult {
				edge.Label = "analyze"
			}
			model.Edges = append(model.Edges, edge)
		}
	}
	return model
}

func stepDetail(step schema.Step, snap wizard.Snapshot) string {
	switch step {
	case schema.StepAnimalSelection:
		return string(snap.AnimalType)
	case schema.StepSymptomSelection:
		if n := len(snap.Symptoms); n > 0 {
			return fmt.Sprintf("%d selected", n)
		}
	case schema.StepImageUpload:
		if snap.ImageRef != "" {
			return "attached"
		}
	case schema.StepAnalysisResult:
		return analysisDetail(snap)
	case schema.StepTreatmentPlan:
		if snap.Result != nil && (snap.Result.Urgency == schema.UrgencyHigh || snap.Result.Urgency == schema.UrgencyEmergency) {
			return "urgent"
		}
	}
	return ""
}

func analysisDetail(snap wizard.Snapshot) string {
	a := snap.Analysis
	switch a.Status {
	case schema.AnalysisRunning:
		return fmt.Sprintf("%d%%", a.Progress)
	case schema.AnalysisSucceeded:
		if snap.Result != nil {
			return fmt.Sprintf("%s (%.0f%%)", snap.Result.Disease, snap.Result.Confidence)
		}
		return "done"
	case schema.AnalysisFailed:
		return "failed"
	}
	if a.Outcome == schema.OutcomeCancelled {
		return "cancelled"
	}
	return ""
}
