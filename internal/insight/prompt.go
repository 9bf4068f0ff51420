package insight

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a supportive wellness assistant that explains stress indicators from wearable data. Be concise, empathetic and actionable. You are not a doctor: never diagnose a condition or suggest medication, and recommend professional help when the user describes distress.`

func buildUserMessage(in Input) string {
	var b strings.Builder
	v := in.Features

	b.WriteString("Today's metrics:\n")
	b.WriteString(fmt.Sprintf("- Heart rate: %.0f bpm\n", v.HeartRate()))
	b.WriteString(fmt.Sprintf("- Resting heart rate: %.0f bpm\n", v.RestingHR()))
	b.WriteString(fmt.Sprintf("- HRV: %.0f ms\n", v.HRV()))
	b.WriteString(fmt.Sprintf("- Steps: %d\n", v.Steps()))
	b.WriteString(fmt.Sprintf("- Active zone minutes: %.0f\n", v.AZM()))
	b.WriteString(fmt.Sprintf("- Calories: %.0f kcal\n", v.Calories()))
	b.WriteString(fmt.Sprintf("- Sleep: %.0f minutes at %.0f%% efficiency\n", v.SleepMinutes(), v.SleepEfficiency()*100))

	if in.Prediction != nil {
		b.WriteString(fmt.Sprintf("\nModel prediction: %s stress (%.0f%% of trees agree)\n",
			in.Prediction.Class, in.Prediction.Confidence*100))
	}

	if in.Finding != nil {
		b.WriteString("\nRule-based observations:\n")
		for _, s := range in.Finding.Summary {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
		if in.Finding.Warning != nil {
			b.WriteString(fmt.Sprintf("Warning: %s\n", *in.Finding.Warning))
		}
	}

	switch in.Mode {
	case ModeChat:
		b.WriteString(fmt.Sprintf("\nUser message:\n%s\n", strings.TrimSpace(in.Message)))
		b.WriteString(`
Instructions:
Reply to the user's message in 2-4 sentences, using the metrics above where they are relevant.`)

	case ModeStructuredPrediction:
		b.WriteString(`
Instructions:
Estimate the user's stress level from the metrics. Answer with stress_level (one of Low, Moderate, High) and stress_probability, your confidence between 0 and 1.`)

	case ModeStructuredRecommendation:
		b.WriteString(`
Instructions:
1. In reason, explain in 1-2 sentences which metrics drive the stress level.
2. In advice, give one concrete thing the user can do today, in 1-2 sentences.`)

	case ModeFreeTextInsight:
		b.WriteString(`
Instructions:
Write a short insight (3-5 sentences) that explains what these metrics suggest about the user's stress today and ends with one practical suggestion. Use plain text, no lists or headings.`)
	}

	return b.String()
}
