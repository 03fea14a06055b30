package alto

// Test-only exports for internal functions.
var (
	CollapseValues    = collapseValues
	PointerSegments   = pointerSegments
	ValueAtPath       = valueAtPath
	NormalizePattern  = normalizePattern
	PatternParamNames = patternParamNames
	StatusDescription = statusDescription
)
