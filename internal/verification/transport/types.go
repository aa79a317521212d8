// Package transport provides HTTP request/response types for the
// verification domain.
package transport

import (
	"sort"

	"github.com/tch-dev/sourcify/internal/verification/domain"
)

// ContractResult is the per-contract result returned to HTTP clients.
type ContractResult struct {
	Name            string                          `json:"name"`
	CompiledPath    string                          `json:"compiledPath"`
	CompilerVersion string                          `json:"compilerVersion,omitempty"`
	Valid           bool                            `json:"valid"`
	Sources         []string                        `json:"sources"`
	Missing         map[string]domain.MissingSource `json:"missing,omitempty"`
	Invalid         map[string]domain.InvalidSource `json:"invalid,omitempty"`
	PathMap         map[string]string               `json:"pathMap,omitempty"`
}

// VerifyResponse is the response for a verification request.
type VerifyResponse struct {
	Contracts   []ContractResult `json:"contracts"`
	UnusedFiles []string         `json:"unusedFiles,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromDomain converts a checked contract to its HTTP representation. Source
// content is not echoed back; clients get the verified path list.
func FromDomain(c *domain.CheckedContract) ContractResult {
	sources := make([]string, 0, len(c.Sources))
	for p := range c.Sources {
		sources = append(sources, p)
	}
	sort.Strings(sources)
	res := ContractResult{
		Name:         c.Name,
		CompiledPath: c.CompiledPath,
		Valid:        c.IsValid(),
		Sources:      sources,
		Missing:      c.Missing,
		Invalid:      c.Invalid,
		PathMap:      c.PathMap,
	}
	if c.Metadata != nil {
		res.CompilerVersion = c.Metadata.Compiler.Version
	}
	return res
}
