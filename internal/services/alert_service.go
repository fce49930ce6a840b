package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/k597/AlertsWebApi/internal/alerts"
	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/metrics"
	"github.com/k597/AlertsWebApi/internal/notify"
)

var (
	// ErrAlertNotFound is returned when no alert has the requested id
	ErrAlertNotFound = errors.New("alert not found")

	// ErrAlertConflict is returned when an update would give an alert the
	// dedup key of another alert
	ErrAlertConflict = errors.New("another alert already has this title, description and severity")
)

// Classifier decides the blacklist flag of an IP from its current state
type Classifier interface {
	IsBlacklisted(ctx context.Context, ip database.IPAddress) bool
}

// EventType names a change published by AlertService
type EventType string

const (
	EventAlertMerged  EventType = "alert.merged"
	EventAlertUpdated EventType = "alert.updated"
	EventAlertDeleted EventType = "alert.deleted"
)

// Event describes a committed change to the alert store
type Event struct {
	Type    EventType       `json:"type"`
	AlertID uint            `json:"alert_id"`
	Alert   *database.Alert `json:"alert,omitempty"`
	At      time.Time       `json:"at"`
}

// EventPublisher receives committed alert changes
type EventPublisher interface {
	Publish(event Event)
}

// AlertService merges alert observations into the deduplicated store and
// maintains IP reference counts
type AlertService struct {
	store      database.Store
	classifier Classifier
	notifier   notify.Notifier
	publisher  EventPublisher
	locks      *keyLock
}

// NewAlertService creates a new AlertService
func NewAlertService(store database.Store, classifier Classifier) *AlertService {
	return &AlertService{
		store:      store,
		classifier: classifier,
		notifier:   notify.NopNotifier{},
		locks:      newKeyLock(),
	}
}

// SetNotifier sets where blacklist transitions are reported
func (s *AlertService) SetNotifier(n notify.Notifier) {
	if n == nil {
		n = notify.NopNotifier{}
	}
	s.notifier = n
}

// SetEventPublisher sets the receiver of committed changes
func (s *AlertService) SetEventPublisher(p EventPublisher) {
	s.publisher = p
}

// dedupKey renders the (title, description, severity) triple as a lock key
func dedupKey(title, description string, severity int) string {
	return strconv.Itoa(len(title)) + ":" + title + "|" + strconv.Itoa(len(description)) + ":" + description + "|" + strconv.Itoa(severity)
}

// MergeAlert records one observation of candidate. An alert with the same
// (title, description, severity) has its count incremented; otherwise a new
// alert is created with count 1. Every IP in the candidate is linked.
func (s *AlertService) MergeAlert(ctx context.Context, candidate alerts.Candidate) (*database.Alert, error) {
	unlock := s.locks.Lock(dedupKey(candidate.Title, candidate.Description, candidate.Severity))
	defer unlock()

	var (
		result  *database.Alert
		flipped []database.IPAddress
		created bool
	)

	err := s.store.Transaction(ctx, func(tx database.Store) error {
		alert, err := tx.FindAlertByKey(ctx, candidate.Title, candidate.Description, candidate.Severity)
		switch {
		case err == nil:
			if err := tx.IncrementAlertCount(ctx, alert.ID); err != nil {
				return fmt.Errorf("increment alert count: %w", err)
			}
		case errors.Is(err, database.ErrNotFound):
			alert, created, err = s.createOrReuse(ctx, tx, candidate)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("find alert by key: %w", err)
		}

		flipped, err = s.attachAll(ctx, tx, alert.ID, candidate.IPs)
		if err != nil {
			return err
		}

		result, err = tx.FindAlertByID(ctx, alert.ID)
		if err != nil {
			return fmt.Errorf("reload alert %d: %w", alert.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.AlertsMerged.WithLabelValues("created").Inc()
	} else {
		metrics.AlertsMerged.WithLabelValues("merged").Inc()
	}

	s.afterCommit(ctx, EventAlertMerged, result, flipped)
	return result, nil
}

// createOrReuse inserts a fresh alert for candidate. If another writer created
// the same key first, the existing row is counted as a re-observation instead.
func (s *AlertService) createOrReuse(ctx context.Context, tx database.Store, candidate alerts.Candidate) (*database.Alert, bool, error) {
	alert := &database.Alert{
		Title:       candidate.Title,
		Description: candidate.Description,
		Severity:    candidate.Severity,
		Count:       1,
	}
	inserted, err := tx.InsertAlertIfAbsent(ctx, alert)
	if err != nil {
		return nil, false, fmt.Errorf("create alert: %w", err)
	}
	if inserted {
		return alert, true, nil
	}

	log.Printf("AlertService: Alert %q was created concurrently, merging into it", candidate.Title)
	existing, err := tx.FindAlertByKey(ctx, candidate.Title, candidate.Description, candidate.Severity)
	if err != nil {
		return nil, false, fmt.Errorf("find concurrently created alert: %w", err)
	}
	if err := tx.IncrementAlertCount(ctx, existing.ID); err != nil {
		return nil, false, fmt.Errorf("increment alert count: %w", err)
	}
	return existing, false, nil
}

// attachAll links every address to the alert and returns the IPs whose
// blacklist flag flipped from false to true
func (s *AlertService) attachAll(ctx context.Context, tx database.Store, alertID uint, addresses []string) ([]database.IPAddress, error) {
	var flipped []database.IPAddress
	for _, address := range addresses {
		ip, becameBlacklisted, err := s.attachIP(ctx, tx, alertID, address)
		if err != nil {
			return nil, err
		}
		if becameBlacklisted {
			flipped = append(flipped, *ip)
		}
	}
	return flipped, nil
}

// attachIP is the single attach-or-noop primitive shared by merge and update.
// The IP row is created when missing, the link is written when missing (and
// only then is the IP count raised), and the blacklist flag is recomputed.
func (s *AlertService) attachIP(ctx context.Context, tx database.Store, alertID uint, address string) (*database.IPAddress, bool, error) {
	var (
		ip  *database.IPAddress
		err error
	)
	// A concurrent delete may drop the row between resolve and link; resolve once more.
	for attempt := 0; attempt < 2; attempt++ {
		ip, err = tx.EnsureIP(ctx, address, alerts.ClassifyIP(address))
		if err != nil {
			return nil, false, fmt.Errorf("resolve ip %s: %w", address, err)
		}
		ip, _, err = tx.AttachIP(ctx, alertID, ip.ID)
		if !errors.Is(err, database.ErrNotFound) {
			break
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("link ip %s to alert %d: %w", address, alertID, err)
	}

	changed, err := s.reclassify(ctx, tx, ip)
	if err != nil {
		return nil, false, err
	}
	return ip, changed && ip.Blacklisted, nil
}

// reclassify recomputes ip's blacklist flag from its current count and
// stores it when it changed
func (s *AlertService) reclassify(ctx context.Context, tx database.Store, ip *database.IPAddress) (bool, error) {
	was := ip.Blacklisted
	ip.Blacklisted = s.classifier.IsBlacklisted(ctx, *ip)
	if ip.Blacklisted == was {
		return false, nil
	}
	if err := tx.SetIPBlacklisted(ctx, ip.ID, ip.Blacklisted); err != nil {
		return false, fmt.Errorf("store blacklist flag for %s: %w", ip.Address, err)
	}
	return true, nil
}

// UpdateAlert overwrites the title and description of alert id and links the
// given IPs. Severity and the alert's own count are left unchanged.
func (s *AlertService) UpdateAlert(ctx context.Context, id uint, title, description string, ips []string) (*database.Alert, error) {
	current, err := s.store.FindAlertByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("find alert %d: %w", id, err)
	}

	unlock := s.locks.Lock(dedupKey(title, description, current.Severity))
	defer unlock()

	var (
		result  *database.Alert
		flipped []database.IPAddress
	)

	err = s.store.Transaction(ctx, func(tx database.Store) error {
		alert, err := tx.FindAlertByID(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrAlertNotFound
			}
			return fmt.Errorf("find alert %d: %w", id, err)
		}

		if alert.Title != title || alert.Description != description {
			other, err := tx.FindAlertByKey(ctx, title, description, alert.Severity)
			if err == nil && other.ID != alert.ID {
				return ErrAlertConflict
			}
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("check alert key: %w", err)
			}
			if err := tx.UpdateAlertText(ctx, alert.ID, title, description); err != nil {
				return fmt.Errorf("update alert %d: %w", alert.ID, err)
			}
		}

		flipped, err = s.attachAll(ctx, tx, alert.ID, ips)
		if err != nil {
			return err
		}

		result, err = tx.FindAlertByID(ctx, alert.ID)
		if err != nil {
			return fmt.Errorf("reload alert %d: %w", alert.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("AlertService: Updated alert with id %d", result.ID)
	s.afterCommit(ctx, EventAlertUpdated, result, flipped)
	return result, nil
}

// DeleteAlert removes alert id and releases its IP references. IPs linked
// only to this alert are deleted; shared IPs lose one count and have their
// blacklist flag recomputed against it.
// Returns false when no such alert exists.
func (s *AlertService) DeleteAlert(ctx context.Context, id uint) (bool, error) {
	current, err := s.store.FindAlertByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find alert %d: %w", id, err)
	}

	unlock := s.locks.Lock(dedupKey(current.Title, current.Description, current.Severity))
	defer unlock()

	var deleted *database.Alert
	err = s.store.Transaction(ctx, func(tx database.Store) error {
		alert, err := tx.FindAlertByID(ctx, id)
		if err != nil {
			return err
		}

		for _, link := range alert.IPLinks {
			ip, err := tx.ReleaseIP(ctx, alert.ID, link.IPAddressID)
			if err != nil {
				return fmt.Errorf("release ip %d: %w", link.IPAddressID, err)
			}
			if ip == nil {
				metrics.IPAddressesReleased.WithLabelValues("deleted").Inc()
				continue
			}
			metrics.IPAddressesReleased.WithLabelValues("decremented").Inc()
			if _, err := s.reclassify(ctx, tx, ip); err != nil {
				return err
			}
		}

		if err := tx.DeleteAlert(ctx, alert.ID); err != nil {
			return fmt.Errorf("delete alert %d: %w", alert.ID, err)
		}
		deleted = alert
		return nil
	})
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	metrics.AlertsDeleted.Inc()
	log.Printf("AlertService: Deleted alert with id %d and released %d ip address(es)", id, len(deleted.IPLinks))
	s.afterCommit(ctx, EventAlertDeleted, deleted, nil)
	return true, nil
}

// GetAlert returns alert id with its IP addresses
func (s *AlertService) GetAlert(ctx context.Context, id uint) (*database.Alert, error) {
	alert, err := s.store.FindAlertByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

// ListAlerts returns a page of alerts and the total count; limit <= 0 returns all
func (s *AlertService) ListAlerts(ctx context.Context, offset, limit int) ([]database.Alert, int64, error) {
	return s.store.ListAlerts(ctx, offset, limit)
}

// Statistics returns aggregate alert and IP counts
func (s *AlertService) Statistics(ctx context.Context) (*database.Statistics, error) {
	return s.store.Statistics(ctx)
}

// afterCommit fans a committed change out to the publisher and notifier.
// Neither may fail the operation that already committed.
func (s *AlertService) afterCommit(ctx context.Context, eventType EventType, alert *database.Alert, flipped []database.IPAddress) {
	if s.publisher != nil && alert != nil {
		s.publisher.Publish(Event{
			Type:    eventType,
			AlertID: alert.ID,
			Alert:   alert,
			At:      time.Now().UTC(),
		})
	}

	for _, ip := range flipped {
		if err := s.notifier.IPBlacklisted(ctx, ip, *alert); err != nil {
			log.Printf("Warning: failed to send blacklist notification for %s: %v", ip.Address, err)
		}
	}
}
