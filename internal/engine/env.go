package engine

import (
	"os"
	"sort"
	"strings"
)

// The marker tells the engine which wrapper invoked it.
const (
	markerKey   = "FERRY_PACKAGE"
	markerValue = "go"
)

// MergeEnv layers environment maps over the inherited process environment in
// increasing precedence and returns a deterministic environ slice. Nothing
// mutates the process environment; each call builds a fresh copy.
func MergeEnv(layers ...map[string]string) []string {
	merged := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	merged[markerKey] = markerValue

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
