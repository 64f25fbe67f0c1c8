package stage

// Health reports whether a stage can run and, when it cannot, why.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks name as ready to process items.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks name as unable to run, with detail naming the blocker.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
