package flow

// Response is what a job body returns to the engine.
type Response struct {
	// Output is the job's output document. Referenced fields of later jobs
	// resolve against it.
	Output any
	// StoredData carries extra data the engine should persist alongside the
	// output without exposing it to references.
	StoredData map[string]any
	// Replace, when set, asks the engine to substitute this flow for the
	// job's remaining work. The replacement is discovered at runtime; the
	// engine owns actually splicing it into the graph.
	Replace *Flow
	// StopChildren asks the engine not to run jobs downstream of this one.
	StopChildren bool
}
