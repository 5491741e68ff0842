package classifier

// Label is one of the fixed tomato defect categories the model scores.
type Label string

const (
	LabelBlossomEndRot Label = "Blossom-end-rot"
	LabelCracking      Label = "Cracking"
	LabelHealthy       Label = "Healthy"
	LabelNotTomato     Label = "Bukan Tomat"
	LabelSplitting     Label = "Splitting"
	LabelSunScaled     Label = "Sun-scaled"
)

// Labels lists the categories in model output order.
var Labels = []Label{
	LabelBlossomEndRot,
	LabelCracking,
	LabelHealthy,
	LabelNotTomato,
	LabelSplitting,
	LabelSunScaled,
}

// OutOfDomain reports whether the label means the image is not a tomato.
func (l Label) OutOfDomain() bool {
	return l == LabelNotTomato
}

func (l Label) String() string {
	return string(l)
}
