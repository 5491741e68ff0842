package classifier

// Note maps a label to the advisory shown alongside a stored scan. Total over
// the label set; the default is never expected to trigger.
func Note(label Label) string {
	switch label {
	case LabelHealthy:
		return "Tomatoes are healthy and suitable for sale"
	case LabelCracking:
		return "Tomatoes are cracking. Check for water inconsistencies."
	case LabelBlossomEndRot:
		return "Tomatoes have blossom-end rot. Not suitable for sale."
	case LabelSplitting:
		return "Tomatoes are splitting. Handle with care."
	case LabelSunScaled:
		return "Tomatoes have sun-scaled damage. Monitor sun exposure."
	default:
		return "Unknown status"
	}
}
