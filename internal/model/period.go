package model

// Period is a named historical interval. Start and End are inclusive signed years.
type Period struct {
	Name  string `json:"name" yaml:"name"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"` // Display string written to period_category
}

// Contains reports whether year falls inside [Start, End]
func (p Period) Contains(year int) bool {
	return p.Start <= year && year <= p.End
}

// DisplayLabel returns Label, falling back to Name
func (p Period) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Dating is the result of running one raw date string through the pipeline
type Dating struct {
	Raw        string `json:"raw"`
	Normalized string `json:"date_normalized"`
	Year       Year   `json:"-"`
	Rule       string `json:"rule,omitempty"` // Name of the extraction rule that fired
	Period     string `json:"period_category"`
}
