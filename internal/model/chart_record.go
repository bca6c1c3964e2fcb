package model

// ChartRecord is one day's time-spent figures for the six feature buckets,
// scoped to an age range and gender. The bucket values stay strings end to
// end: the source sheet exports them as text and the wire contract keeps
// them that way. Consumers parse leniently and treat junk as zero.
type ChartRecord struct {
	Day    string `json:"Day"`
	Age    string `json:"Age,omitempty"`
	Gender string `json:"Gender,omitempty"`
	A      string `json:"A"`
	B      string `json:"B"`
	C      string `json:"C"`
	D      string `json:"D"`
	E      string `json:"E"`
	F      string `json:"F"`
}

// Bucket returns the raw value for a category label, or "" for an unknown label.
func (r ChartRecord) Bucket(label string) string {
	switch label {
	case "A":
		return r.A
	case "B":
		return r.B
	case "C":
		return r.C
	case "D":
		return r.D
	case "E":
		return r.E
	case "F":
		return r.F
	default:
		return ""
	}
}
