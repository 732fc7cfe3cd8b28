//go:build !js_eval

package filters

// NewJSEvaluator returns nil unless the module is built with the js_eval tag;
// Expression reports ErrNoEvaluator for a nil JS evaluator.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
