package database

import "context"

// Statistics summarizes the alert store
type Statistics struct {
	TotalAlerts          int64   `json:"total_alerts"`
	TotalIPs             int64   `json:"total_ips"`
	BlacklistedIPCount   int64   `json:"blacklisted_ip_count"`
	BlacklistedIPPercent float64 `json:"blacklisted_ip_percent"`
	InternalIPCount      int64   `json:"internal_ip_count"`
	InternalIPPercent    float64 `json:"internal_ip_percent"`
	ExternalIPCount      int64   `json:"external_ip_count"`
	ExternalIPPercent    float64 `json:"external_ip_percent"`
}

// Statistics counts alerts and IPs. When either table is empty only the totals
// are filled in and every breakdown stays zero.
func (r *Repository) Statistics(ctx context.Context) (*Statistics, error) {
	db := r.db.WithContext(ctx)
	stats := &Statistics{}

	if err := db.Model(&Alert{}).Count(&stats.TotalAlerts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&IPAddress{}).Count(&stats.TotalIPs).Error; err != nil {
		return nil, err
	}
	if stats.TotalAlerts == 0 || stats.TotalIPs == 0 {
		return stats, nil
	}

	if err := db.Model(&IPAddress{}).Where("blacklisted = ?", true).Count(&stats.BlacklistedIPCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&IPAddress{}).Where("source_type = ?", SourceTypeInternal).Count(&stats.InternalIPCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&IPAddress{}).Where("source_type = ?", SourceTypeExternal).Count(&stats.ExternalIPCount).Error; err != nil {
		return nil, err
	}

	total := float64(stats.TotalIPs)
	stats.BlacklistedIPPercent = float64(stats.BlacklistedIPCount) / total * 100
	stats.InternalIPPercent = float64(stats.InternalIPCount) / total * 100
	stats.ExternalIPPercent = float64(stats.ExternalIPCount) / total * 100
	return stats, nil
}
