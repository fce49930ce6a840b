package testhelpers

import (
	"github.com/k597/AlertsWebApi/internal/alerts"
	"github.com/k597/AlertsWebApi/internal/database"
)

// CandidateBuilder builds alerts.Candidate instances for testing
type CandidateBuilder struct {
	candidate alerts.Candidate
}

// NewCandidateBuilder creates a new candidate builder with defaults
func NewCandidateBuilder() *CandidateBuilder {
	return &CandidateBuilder{
		candidate: alerts.Candidate{
			Title:       "Port scan detected",
			Description: "Sequential connection attempts on closed ports",
			Severity:    2,
		},
	}
}

// WithTitle sets the title
func (b *CandidateBuilder) WithTitle(title string) *CandidateBuilder {
	b.candidate.Title = title
	return b
}

// WithDescription sets the description
func (b *CandidateBuilder) WithDescription(desc string) *CandidateBuilder {
	b.candidate.Description = desc
	return b
}

// WithSeverity sets the severity
func (b *CandidateBuilder) WithSeverity(severity int) *CandidateBuilder {
	b.candidate.Severity = severity
	return b
}

// WithIPs appends addresses
func (b *CandidateBuilder) WithIPs(addresses ...string) *CandidateBuilder {
	b.candidate.IPs = append(b.candidate.IPs, addresses...)
	return b
}

// Build returns the constructed candidate
func (b *CandidateBuilder) Build() alerts.Candidate {
	c := b.candidate
	c.IPs = append([]string(nil), b.candidate.IPs...)
	return c
}

// IPAddressBuilder builds database.IPAddress instances for testing
type IPAddressBuilder struct {
	ip database.IPAddress
}

// NewIPAddressBuilder creates an external IP with count 1
func NewIPAddressBuilder(address string) *IPAddressBuilder {
	return &IPAddressBuilder{
		ip: database.IPAddress{
			Address:    address,
			SourceType: database.SourceTypeExternal,
			Count:      1,
		},
	}
}

// WithID sets the ID
func (b *IPAddressBuilder) WithID(id uint) *IPAddressBuilder {
	b.ip.ID = id
	return b
}

// Internal marks the IP as internal
func (b *IPAddressBuilder) Internal() *IPAddressBuilder {
	b.ip.SourceType = database.SourceTypeInternal
	return b
}

// WithCount sets the reference count
func (b *IPAddressBuilder) WithCount(count int) *IPAddressBuilder {
	b.ip.Count = count
	return b
}

// Blacklisted marks the IP as blacklisted
func (b *IPAddressBuilder) Blacklisted() *IPAddressBuilder {
	b.ip.Blacklisted = true
	return b
}

// Build returns the constructed IP address
func (b *IPAddressBuilder) Build() database.IPAddress {
	return b.ip
}
