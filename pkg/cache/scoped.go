package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The API server scopes knowledge keys by deployment so that a shared Redis
// can back several advisers with different knowledge snapshots.
//
// Example usage:
//
//	stagingKeyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) VersionsKey(index, name string) string {
	return k.prefix + k.inner.VersionsKey(index, name)
}

func (k *ScopedKeyer) DependenciesKey(name, version, index string, env EnvKeyOpts) string {
	return k.prefix + k.inner.DependenciesKey(name, version, index, env)
}

func (k *ScopedKeyer) CVEKey(name, version, index string) string {
	return k.prefix + k.inner.CVEKey(name, version, index)
}

func (k *ScopedKeyer) BuildErrorKey(name, version, index string, env EnvKeyOpts) string {
	return k.prefix + k.inner.BuildErrorKey(name, version, index, env)
}

func (k *ScopedKeyer) IndexKey(index string) string {
	return k.prefix + k.inner.IndexKey(index)
}

func (k *ScopedKeyer) PerformanceKey(name, version, index string, env EnvKeyOpts) string {
	return k.prefix + k.inner.PerformanceKey(name, version, index, env)
}

func (k *ScopedKeyer) ReportKey(id string) string {
	return k.prefix + k.inner.ReportKey(id)
}
