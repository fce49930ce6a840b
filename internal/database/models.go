package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceType classifies where an IP address lives relative to the monitored network
type SourceType int

const (
	SourceTypeInternal SourceType = iota
	SourceTypeExternal
)

// String returns the lowercase name of the source type
func (s SourceType) String() string {
	switch s {
	case SourceTypeInternal:
		return "internal"
	case SourceTypeExternal:
		return "external"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalJSON encodes the source type as its name
func (s SourceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the name or the numeric value
func (s *SourceType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "internal", "Internal":
			*s = SourceTypeInternal
		case "external", "External":
			*s = SourceTypeExternal
		default:
			return fmt.Errorf("unknown source type %q", name)
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("source type must be a string or integer")
	}
	if n != int(SourceTypeInternal) && n != int(SourceTypeExternal) {
		return fmt.Errorf("unknown source type %d", n)
	}
	*s = SourceType(n)
	return nil
}

// Alert is a deduplicated security alert. The (title, description, severity)
// triple is unique; repeated observations bump Count.
type Alert struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:text;not null;uniqueIndex:idx_alerts_dedup_key,priority:1" json:"title"`
	Description string    `gorm:"type:text;not null;uniqueIndex:idx_alerts_dedup_key,priority:2" json:"description"`
	Severity    int       `gorm:"not null;uniqueIndex:idx_alerts_dedup_key,priority:3" json:"severity"`
	Count       int       `gorm:"not null;default:1" json:"count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Many-to-many through alert_ip_addresses
	IPLinks []AlertIPAddress `gorm:"foreignKey:AlertID" json:"ip_links,omitempty"`
}

// Addresses returns the address strings of all linked IPs
func (a *Alert) Addresses() []string {
	out := make([]string, 0, len(a.IPLinks))
	for _, link := range a.IPLinks {
		if link.IPAddress != nil {
			out = append(out, link.IPAddress.Address)
		}
	}
	return out
}

// HasLink reports whether the alert already references the given IP row
func (a *Alert) HasLink(ipID uint) bool {
	for _, link := range a.IPLinks {
		if link.IPAddressID == ipID {
			return true
		}
	}
	return false
}

// IPAddress is a shared, reference-counted address observed on one or more alerts.
// Count tracks how many alerts currently link to it.
type IPAddress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Address     string     `gorm:"type:text;not null;uniqueIndex" json:"address"`
	Blacklisted bool       `gorm:"not null;default:false" json:"blacklisted"`
	SourceType  SourceType `gorm:"not null" json:"source_type"`
	Count       int        `gorm:"not null" json:"count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AlertIPAddress is the link row between an alert and an IP address
type AlertIPAddress struct {
	AlertID     uint `gorm:"primaryKey;autoIncrement:false" json:"alert_id"`
	IPAddressID uint `gorm:"primaryKey;autoIncrement:false;index" json:"ip_address_id"`

	IPAddress *IPAddress `gorm:"foreignKey:IPAddressID" json:"ip_address,omitempty"`
}

// TableName overrides for explicit table naming
func (Alert) TableName() string {
	return "alerts"
}

func (IPAddress) TableName() string {
	return "ip_addresses"
}

func (AlertIPAddress) TableName() string {
	return "alert_ip_addresses"
}
