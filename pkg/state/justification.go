package state

// Justification types.
const (
	TypeInfo    = "INFO"
	TypeWarning = "WARNING"
	TypeError   = "ERROR"
)

// Justification is a human readable record explaining a score change, a
// rejection or a degraded outcome. The same record shape is used for a
// state's justification log and for a report's stack info.
type Justification struct {
	Type    string            `json:"type" yaml:"type"`
	Message string            `json:"message" yaml:"message"`
	Link    string            `json:"link,omitempty" yaml:"link,omitempty"`
	Package string            `json:"package_name,omitempty" yaml:"package_name,omitempty"`
	Version string            `json:"package_version,omitempty" yaml:"package_version,omitempty"`
	Index   string            `json:"index_url,omitempty" yaml:"index_url,omitempty"`
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Info builds an INFO record.
func Info(msg string) Justification { return Justification{Type: TypeInfo, Message: msg} }

// Warning builds a WARNING record.
func Warning(msg string) Justification { return Justification{Type: TypeWarning, Message: msg} }

func (j Justification) clone() Justification {
	if j.Details != nil {
		d := make(map[string]string, len(j.Details))
		for k, v := range j.Details {
			d[k] = v
		}
		j.Details = d
	}
	return j
}
