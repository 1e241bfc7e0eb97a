package chain

import (
	"regexp"
	"strconv"
	"strings"
)

// okUintPattern matches the success wrapper the contract returns for
// create-style operations, e.g. "(ok u42)".
var okUintPattern = regexp.MustCompile(`^\(ok u(\d+)\)$`)

// ExtractOkUint defensively pulls the unsigned integer out of an "(ok uN)"
// receipt representation. Any other shape yields nil rather than an error:
// callers fall back to their pre-computed expected id.
func ExtractOkUint(repr string) *uint64 {
	m := okUintPattern.FindStringSubmatch(strings.TrimSpace(repr))
	if m == nil {
		return nil
	}
	v, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// abortReasons maps known contract error-code substrings to user-facing
// messages. Codes mirror the escrow contract's error constants.
var abortReasons = []struct {
	code   string
	reason string
}{
	{"u401", "you are not authorized to perform this action"},
	{"u402", "insufficient funds to complete the booking"},
	{"u403", "only the dispute resolver can do that"},
	{"u404", "the property or booking was not found"},
	{"u409", "the property is not available for those dates"},
	{"u410", "this booking has already been settled"},
}

const genericAbortReason = "the transaction was rejected by the contract"

// ReasonFromReceipt derives a best-effort human-readable failure reason from
// an aborted transaction's receipt representation. Unknown codes get a
// generic message.
func ReasonFromReceipt(repr string) string {
	for _, entry := range abortReasons {
		if strings.Contains(repr, entry.code) {
			return entry.reason
		}
	}
	return genericAbortReason
}
