package units

import (
	"fmt"

	"github.com/matzehuels/stackadvisor/pkg/pipeline"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolution"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// DefaultCvePenalization is the score added per vulnerability.
const DefaultCvePenalization = -0.2

// CvePenalization penalizes candidates affected by known vulnerabilities.
var CvePenalization = &pipeline.Descriptor{
	Name:          "cve_penalization",
	Kind:          pipeline.KindStep,
	Defaults:      pipeline.Configuration{"cve_penalization": DefaultCvePenalization},
	New:           newCvePenalizationStep,
	ShouldInclude: unless(resolution.RecommendationLatest),
}

// CvePenalizationStep adds the configured penalty once per vulnerability
// affecting the candidate.
type CvePenalizationStep struct {
	pipeline.Base
	penalty float64
}

func newCvePenalizationStep(b pipeline.Base) (pipeline.Unit, error) {
	penalty, err := b.Config().Float("cve_penalization")
	if err != nil {
		return nil, err
	}
	return &CvePenalizationStep{Base: b, penalty: penalty}, nil
}

// Run implements [pipeline.Step].
func (s *CvePenalizationStep) Run(c *resolution.Context, _ *state.State, t python.PackageTuple) (*pipeline.StepResult, error) {
	records, err := c.KB.GetCVERecords(c.Ctx(), t.Name, t.Version)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	res := &pipeline.StepResult{Score: s.penalty * float64(len(records))}
	for _, r := range records {
		j := state.Warning(fmt.Sprintf("Package affected by a security vulnerability: %s", r.ID))
		j.Link = r.Link
		j.Package = t.Name
		j.Version = t.Version
		j.Index = t.Index
		if r.Advisory != "" {
			j.Details = map[string]string{"advisory": r.Advisory}
		}
		res.Justification = append(res.Justification, j)
	}
	return res, nil
}
