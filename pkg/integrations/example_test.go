package integrations_test

import (
	"fmt"

	"github.com/matzehuels/stackadvisor/pkg/integrations"
)

func ExampleNormalizePkgName() {
	// Package names are normalized to lowercase with hyphens
	fmt.Println(integrations.NormalizePkgName("FastAPI"))
	fmt.Println(integrations.NormalizePkgName("my_package"))
	fmt.Println(integrations.NormalizePkgName("  Spaces  "))
	// Output:
	// fastapi
	// my-package
	// spaces
}

func ExampleURLEncode() {
	fmt.Println(integrations.URLEncode("zope.interface"))
	fmt.Println(integrations.URLEncode("package name"))
	// Output:
	// zope.interface
	// package%20name
}

func Example_errors() {
	// Standard errors for index operations
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	fmt.Println("ErrRateLimited:", integrations.ErrRateLimited)
	// Output:
	// ErrNotFound: not found
	// ErrNetwork: network error
	// ErrRateLimited: rate limited
}
