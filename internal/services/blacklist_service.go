package services

import (
	"context"
	"log"

	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/enrichment"
	"github.com/k597/AlertsWebApi/internal/metrics"
)

// EnrichmentLookup is the external reputation service consulted for IPs
// the count threshold does not already condemn
type EnrichmentLookup interface {
	Lookup(ctx context.Context, address string) (*enrichment.Result, error)
}

// BlacklistService decides whether an IP address is blacklisted
type BlacklistService struct {
	threshold int
	lookup    EnrichmentLookup
}

// NewBlacklistService creates a classifier. External IPs whose count reaches
// threshold are blacklisted without a lookup; lookup may be nil, in which
// case every other IP is treated as clean.
func NewBlacklistService(threshold int, lookup EnrichmentLookup) *BlacklistService {
	return &BlacklistService{
		threshold: threshold,
		lookup:    lookup,
	}
}

// Threshold returns the configured auto-blacklist count
func (s *BlacklistService) Threshold() int {
	return s.threshold
}

// IsBlacklisted classifies ip using its current count and source type.
// Lookup failures are logged and degrade to false.
func (s *BlacklistService) IsBlacklisted(ctx context.Context, ip database.IPAddress) bool {
	if ip.SourceType == database.SourceTypeExternal && ip.Count >= s.threshold {
		metrics.ThresholdBlacklists.Inc()
		return true
	}

	if s.lookup == nil {
		return false
	}

	result, err := s.lookup.Lookup(ctx, ip.Address)
	if err != nil {
		log.Printf("BlacklistService: Error enriching IP address %s: %v", ip.Address, err)
		metrics.EnrichmentLookups.WithLabelValues("error").Inc()
		return false
	}
	if result != nil && result.Blacklisted {
		metrics.EnrichmentLookups.WithLabelValues("blacklisted").Inc()
		return true
	}
	metrics.EnrichmentLookups.WithLabelValues("clean").Inc()
	return false
}
