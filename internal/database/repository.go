package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by lookups that match no row
var ErrNotFound = gorm.ErrRecordNotFound

// Store is the persistence surface used by the alert merge engine.
// Every method called on the Store handed to Transaction's callback runs inside
// that transaction; the whole callback commits or rolls back as one unit.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindAlertByKey(ctx context.Context, title, description string, severity int) (*Alert, error)
	FindAlertByID(ctx context.Context, id uint) (*Alert, error)
	ListAlerts(ctx context.Context, offset, limit int) ([]Alert, int64, error)
	InsertAlertIfAbsent(ctx context.Context, alert *Alert) (bool, error)
	IncrementAlertCount(ctx context.Context, id uint) error
	UpdateAlertText(ctx context.Context, id uint, title, description string) error
	DeleteAlert(ctx context.Context, id uint) error

	FindIPByAddress(ctx context.Context, address string) (*IPAddress, error)
	EnsureIP(ctx context.Context, address string, source SourceType) (*IPAddress, error)
	AttachIP(ctx context.Context, alertID, ipID uint) (*IPAddress, bool, error)
	ReleaseIP(ctx context.Context, alertID, ipID uint) (*IPAddress, error)
	SetIPBlacklisted(ctx context.Context, ipID uint, blacklisted bool) error

	Statistics(ctx context.Context) (*Statistics, error)
}

// Repository implements Store on top of gorm
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository bound to db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a database transaction
func (r *Repository) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// FindAlertByKey looks an alert up by its exact (title, description, severity) triple
func (r *Repository) FindAlertByKey(ctx context.Context, title, description string, severity int) (*Alert, error) {
	var alert Alert
	err := r.db.WithContext(ctx).
		Preload("IPLinks.IPAddress").
		Where("title = ? AND description = ? AND severity = ?", title, description, severity).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// FindAlertByID retrieves an alert with its IP links and addresses
func (r *Repository) FindAlertByID(ctx context.Context, id uint) (*Alert, error) {
	var alert Alert
	if err := r.db.WithContext(ctx).Preload("IPLinks.IPAddress").First(&alert, id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListAlerts returns alerts ordered by id together with the total row count.
// A non-positive limit returns every alert.
func (r *Repository) ListAlerts(ctx context.Context, offset, limit int) ([]Alert, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Alert{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).Preload("IPLinks.IPAddress").Order("id asc")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}

	var alerts []Alert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// InsertAlertIfAbsent inserts alert unless its dedup key already exists.
// Returns false when a concurrent writer created the row first.
func (r *Repository) InsertAlertIfAbsent(ctx context.Context, alert *Alert) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("IPLinks").
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementAlertCount records one more observation of an alert
func (r *Repository) IncrementAlertCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", id).
		UpdateColumn("count", gorm.Expr("count + ?", 1)).Error
}

// UpdateAlertText overwrites title and description; severity and count are untouched
func (r *Repository) UpdateAlertText(ctx context.Context, id uint, title, description string) error {
	return r.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":       title,
			"description": description,
		}).Error
}

// DeleteAlert removes an alert and its link rows
func (r *Repository) DeleteAlert(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("alert_id = ?", id).Delete(&AlertIPAddress{}).Error; err != nil {
		return err
	}
	return db.Delete(&Alert{}, id).Error
}

// FindIPByAddress looks an IP up by its exact address string
func (r *Repository) FindIPByAddress(ctx context.Context, address string) (*IPAddress, error) {
	var ip IPAddress
	if err := r.db.WithContext(ctx).Where("address = ?", address).First(&ip).Error; err != nil {
		return nil, err
	}
	return &ip, nil
}

// EnsureIP returns the row for address, creating it with a zero count when absent.
// The count is raised by AttachIP once a link exists.
func (r *Repository) EnsureIP(ctx context.Context, address string, source SourceType) (*IPAddress, error) {
	ip := &IPAddress{Address: address, SourceType: source}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ip).Error
	if err != nil {
		return nil, err
	}
	return r.FindIPByAddress(ctx, address)
}

// lockIP reads an IP row with a row lock held until the transaction ends,
// so attach and release on the same address serialize. SQLite ignores the
// lock clause and relies on its single writer.
func (r *Repository) lockIP(ctx context.Context, ipID uint) (*IPAddress, error) {
	var ip IPAddress
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ip, ipID).Error
	if err != nil {
		return nil, err
	}
	return &ip, nil
}

// AttachIP links an IP to an alert unless the link already exists.
// The IP's count is incremented only when a new link row was written.
// It returns the IP as stored afterwards, or ErrNotFound when the row was
// deleted after the caller resolved it.
func (r *Repository) AttachIP(ctx context.Context, alertID, ipID uint) (*IPAddress, bool, error) {
	ip, err := r.lockIP(ctx, ipID)
	if err != nil {
		return nil, false, err
	}

	db := r.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&AlertIPAddress{AlertID: alertID, IPAddressID: ipID})
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return ip, false, nil
	}
	err = db.Model(&IPAddress{}).Where("id = ?", ipID).
		UpdateColumn("count", gorm.Expr("count + ?", 1)).Error
	if err != nil {
		return nil, false, err
	}
	ip.Count++
	return ip, true, nil
}

// ReleaseIP removes the link between alertID and ipID and drops one count
// from the IP. The IP row is deleted only once its count reaches zero and no
// other alert links to it. It returns the surviving IP, or nil when the row
// is gone.
func (r *Repository) ReleaseIP(ctx context.Context, alertID, ipID uint) (*IPAddress, error) {
	ip, err := r.lockIP(ctx, ipID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	unlinked := db.Where("alert_id = ? AND ip_address_id = ?", alertID, ipID).Delete(&AlertIPAddress{})
	if unlinked.Error != nil {
		return nil, unlinked.Error
	}
	if unlinked.RowsAffected == 0 {
		return ip, nil
	}

	err = db.Model(&IPAddress{}).Where("id = ? AND count > 0", ipID).
		UpdateColumn("count", gorm.Expr("count - ?", 1)).Error
	if err != nil {
		return nil, err
	}

	removed := db.Where("id = ? AND count <= 0", ipID).
		Where("NOT EXISTS (?)", db.Model(&AlertIPAddress{}).Select("1").Where("ip_address_id = ?", ipID)).
		Delete(&IPAddress{})
	if removed.Error != nil {
		return nil, removed.Error
	}
	if removed.RowsAffected > 0 {
		return nil, nil
	}
	return r.FindIPByID(ctx, ipID)
}

// FindIPByID looks an IP up by primary key
func (r *Repository) FindIPByID(ctx context.Context, id uint) (*IPAddress, error) {
	var ip IPAddress
	if err := r.db.WithContext(ctx).First(&ip, id).Error; err != nil {
		return nil, err
	}
	return &ip, nil
}

// SetIPBlacklisted stores the freshly computed blacklist flag
func (r *Repository) SetIPBlacklisted(ctx context.Context, ipID uint, blacklisted bool) error {
	return r.db.WithContext(ctx).Model(&IPAddress{}).Where("id = ?", ipID).
		UpdateColumn("blacklisted", blacklisted).Error
}

