package models

// FunctionCall records one inline function invocation detected in a
// generated response. The log is scoped to a single post-processing pass
// and deduplicated by (Function, Arguments) signature.
type FunctionCall struct {
	Function  string        `json:"function"`
	Arguments []interface{} `json:"arguments"`
	Result    interface{}   `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}
