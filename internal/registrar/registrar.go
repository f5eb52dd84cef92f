// Package registrar talks to the domain registrar that searches, registers and
// configures forwarding for purchased variants.
package registrar

//go:generate mockgen -source=registrar.go -destination=mocks/registrar_mock.go -package=mocks

import (
	"context"
	"fmt"
)

// Registrar is the remote registrar account.
type Registrar interface {
	SearchDomain(ctx context.Context, domain string) (SearchResult, error)
	RegisterDomain(ctx context.Context, domain string, years int) (Result, error)
	SetEmailForward(ctx context.Context, domain string, forwards []EmailForward) (Result, error)
	SetURLForwarding(ctx context.Context, domain, forwardURL string, permanent bool) (Result, error)
	ListDomains(ctx context.Context) ([]DomainInfo, error)
}

type SearchResult struct {
	Domain    string   `json:"domain"`
	Available bool     `json:"available"`
	Price     *float64 `json:"price,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

// Result is the outcome of a mutating registrar command. Success=false carries
// the registrar's own message; transport failures are returned as errors instead.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type EmailForward struct {
	Username  string `json:"username"`
	ForwardTo string `json:"forwardTo"`
}

type DomainInfo struct {
	Domain     string `json:"domain"`
	Expiration string `json:"expiration,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Error is a failed registrar command. API is set when the registrar answered
// with an error payload rather than the request failing in transit.
type Error struct {
	Command string
	Message string
	API     bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("registrar %s: %v", e.Command, e.Err)
	default:
		return fmt.Sprintf("registrar %s failed", e.Command)
	}
}

func (e *Error) Unwrap() error { return e.Err }
