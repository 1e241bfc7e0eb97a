// Package tx builds contract-call payloads for the marketplace's mutating
// operations and defines the wallet broadcast boundary. Builders validate
// inputs and describe the call; they never broadcast themselves.
package tx

import "strconv"

// ArgType enumerates the contract argument encodings the builders emit.
type ArgType string

const (
	ArgUint      ArgType = "uint"
	ArgString    ArgType = "string"
	ArgPrincipal ArgType = "principal"
)

// Arg is a single typed contract-call argument.
type Arg struct {
	Type  ArgType `json:"type"`
	Value string  `json:"value"`
}

// Uint builds a uint argument.
func Uint(v uint64) Arg {
	return Arg{Type: ArgUint, Value: formatUint(v)}
}

// Str builds a string argument.
func Str(s string) Arg {
	return Arg{Type: ArgString, Value: s}
}

// Principal builds a principal (address) argument.
func Principal(addr string) Arg {
	return Arg{Type: ArgPrincipal, Value: addr}
}

// Payload describes one contract call, ready for the wallet boundary to sign
// and broadcast.
type Payload struct {
	Function string `json:"function"`
	Args     []Arg  `json:"args"`
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
