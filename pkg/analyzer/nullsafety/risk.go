package nullsafety

import (
	"slices"
	"strings"
)

// Risk classifies a chain before protection is considered.
type Risk int

const (
	// RiskNone chains are never reported.
	RiskNone Risk = iota
	// RiskDeep chains are long but otherwise ordinary; reported at a
	// lowered severity.
	RiskDeep
	// RiskHigh chains match a pattern that commonly fails at runtime.
	RiskHigh
)

// String returns the string representation.
func (r Risk) String() string {
	switch r {
	case RiskDeep:
		return "deep"
	case RiskHigh:
		return "high"
	}
	return "none"
}

var responseSegments = map[string]bool{
	"data": true, "response": true, "result": true, "payload": true, "content": true,
}

// builtinGlobals are the language's built-in objects. Host runtimes add
// their own through the globals argument of Classify and Unsafe.
var builtinGlobals = map[string]bool{
	"Math": true, "JSON": true, "Object": true, "Array": true, "String": true,
	"Number": true, "Boolean": true, "Date": true, "RegExp": true, "Promise": true,
	"Intl": true, "Symbol": true, "Reflect": true, "Error": true, "console": true,
}

func isGlobal(name string, globals []string) bool {
	return builtinGlobals[name] || slices.Contains(globals, name)
}

// safeMethods are widget accessors and collection methods. Wherever one is
// called in a chain, only its receiver matters.
var safeMethods = map[string]bool{
	// widget accessors
	"getValue": true, "setValue": true, "getText": true, "setText": true,
	"getData": true, "setData": true, "getVisible": true, "setVisible": true,
	"getEnabled": true, "setEnabled": true, "getProperty": true, "setProperty": true,
	"isVisible": true, "isEnabled": true, "refresh": true, "show": true, "hide": true,
	// collection and string methods
	"push": true, "pop": true, "shift": true, "unshift": true, "splice": true,
	"slice": true, "concat": true, "join": true, "map": true, "filter": true,
	"forEach": true, "reduce": true, "find": true, "findIndex": true, "some": true,
	"every": true, "includes": true, "indexOf": true, "sort": true, "reverse": true,
	"keys": true, "values": true, "entries": true, "toString": true, "trim": true,
	"split": true, "replace": true, "toLowerCase": true, "toUpperCase": true,
	"startsWith": true, "endsWith": true, "substring": true, "charAt": true,
}

// Receiver cuts chain before its first call to a known-safe method. Chains
// without one are returned unchanged.
func Receiver(chain string) string {
	segs := Segments(chain)
	for i := 1; i < len(segs); i++ {
		if strings.Contains(segs[i], "()") && safeMethods[segmentName(segs[i])] {
			return strings.Join(segs[:i], ".")
		}
	}
	return chain
}

// Classify returns the risk of chain. deep is the segment count from which
// an ordinary chain is considered deep. Chains rooted at a built-in object
// or at one of globals are never risky, and a call to a known-safe method
// leaves only its receiver to judge.
func Classify(chain string, deep int, globals ...string) Risk {
	segs := Segments(Receiver(chain))
	if segs[0] == ExprSegment || isGlobal(segmentName(segs[0]), globals) {
		return RiskNone
	}

	for i, seg := range segs {
		// Any indexed access. This also covers collection-shaped segments
		// such as items[ and rows[.
		if strings.Contains(seg, "[]") {
			return RiskHigh
		}
		// .method().property
		if i > 0 && i < len(segs)-1 && strings.HasSuffix(seg, "()") {
			return RiskHigh
		}
	}

	if len(segs) >= 3 {
		for _, seg := range segs {
			if responseSegments[segmentName(seg)] {
				return RiskHigh
			}
		}
	}

	if len(segs) >= max(deep, 3) {
		return RiskDeep
	}
	return RiskNone
}
