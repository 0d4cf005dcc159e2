package protocol

// Operator registries. The server rejects unknown operators on its own,
// but validating here keeps a typo from costing a round trip and keeps
// the error local to the bad call site.

var binaryOps = map[string]struct{}{
	"+": {}, "-": {}, "*": {}, "/": {}, "//": {}, "%": {},
	"<": {}, ">": {}, "<=": {}, ">=": {}, "!=": {}, "==": {},
	"&": {}, "|": {}, "^": {}, "<<": {}, ">>": {}, "**": {},
}

var compoundOps = map[string]struct{}{
	"+=": {}, "-=": {}, "*=": {}, "/=": {}, "//=": {},
	"&=": {}, "|=": {}, "^=": {}, "<<=": {}, ">>=": {}, "**=": {},
}

var reductionOps = map[string]struct{}{
	"any": {}, "all": {}, "is_sorted": {},
	"sum": {}, "prod": {}, "min": {}, "max": {},
	"argmin": {}, "argmax": {},
	"mean": {}, "var": {}, "std": {},
}

// ValidBinaryOp reports whether op is a recognized elementwise operator.
func ValidBinaryOp(op string) bool {
	_, ok := binaryOps[op]
	return ok
}

// ValidCompoundOp reports whether op is a recognized in-place operator.
func ValidCompoundOp(op string) bool {
	_, ok := compoundOps[op]
	return ok
}

// ValidReduction reports whether op is a recognized reduction.
func ValidReduction(op string) bool {
	_, ok := reductionOps[op]
	return ok
}
