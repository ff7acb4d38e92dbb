package resolver_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/stackadvisor/pkg/knowledge"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/resolver"
)

func Example() {
	kb := knowledge.NewMemoryFromSnapshot(&knowledge.Snapshot{
		Packages: []knowledge.PackageRecord{
			{Name: "flask", Version: "1.0.2", Requires: []string{"click>=5.1"}},
			{Name: "click", Version: "7.0"},
			{Name: "click", Version: "6.0"},
		},
	})
	req, _ := python.ParseRequirement("flask>=1.0")
	project := &python.Project{Requirements: []python.Requirement{req}}

	r, _ := resolver.New(nil, nil, resolver.Options{Limit: 1})
	report, err := r.Resolve(context.Background(), kb, project)
	if err != nil {
		panic(err)
	}
	for _, t := range report.Best().Packages {
		fmt.Println(t.Name, t.Version)
	}
	fmt.Println(report.Stats.Termination)
	// Output:
	// click 7.0
	// flask 1.0.2
	// limit
}
