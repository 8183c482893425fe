package services

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"usersync/internal/models"
	"usersync/internal/repositories"
)

const (
	EventUserSynced  = "user.synced"
	EventUserSkipped = "user.skipped"
)

// LocalStore persists the full local mapping.
type LocalStore interface {
	Save(path string, users models.UserMap) error
}

// EventPublisher announces the outcome of a remote replay. It is optional.
type EventPublisher interface {
	Publish(eventType string, payload any) error
}

// UserEvent is the payload published for every replayed record.
type UserEvent struct {
	Event  string      `json:"event"`
	UserID string      `json:"user_id"`
	User   models.User `json:"user"`
	At     time.Time   `json:"at"`
}

// SyncReport describes what one reconcile run did.
type SyncReport struct {
	Inserted []string
	Skipped  []string
	Failed   map[string]error
	SaveErr  error
}

// Reconciler merges new records into the local store and replays them into
// the remote table. The two legs are independent: neither one blocks or rolls
// back the other, and there is no transaction spanning both stores.
type Reconciler struct {
	store     LocalStore
	path      string
	publisher EventPublisher
	logger    *zap.Logger
}

// NewReconciler creates a new Reconciler. publisher may be nil.
func NewReconciler(store LocalStore, path string, publisher EventPublisher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:     store,
		path:      path,
		publisher: publisher,
		logger:    logger,
	}
}

// MergeUsers overwrites local entries with the batch, last write wins, and
// returns local. A nil local map is replaced by a new one.
func MergeUsers(local, batch models.UserMap) models.UserMap {
	if local == nil {
		local = make(models.UserMap, len(batch))
	}
	for id, u := range batch {
		u.ID = id
		local[id] = u
	}
	return local
}

// Reconcile runs both legs for batch. remote may be nil when no connection
// could be made, in which case only the local leg runs.
func (r *Reconciler) Reconcile(local, batch models.UserMap, remote repositories.UserRepository) (models.UserMap, SyncReport) {
	merged, saveErr := r.MergeLocal(local, batch)

	var report SyncReport
	if remote != nil {
		report = r.ReplayRemote(remote, batch)
	} else {
		r.logger.Warn("remote store unavailable, only the local store was updated", zap.Int("records", len(batch)))
	}
	report.SaveErr = saveErr
	return merged, report
}

// MergeLocal merges batch into local and persists the whole mapping once.
// The merged mapping is returned even when the save fails.
func (r *Reconciler) MergeLocal(local, batch models.UserMap) (models.UserMap, error) {
	merged := MergeUsers(local, batch)
	if err := r.store.Save(r.path, merged); err != nil {
		r.logger.Error("failed to save local store", zap.String("path", r.path), zap.Error(err))
		return merged, fmt.Errorf("failed to save local store: %w", err)
	}
	r.logger.Info("local store saved", zap.String("path", r.path), zap.Int("records", len(merged)))
	return merged, nil
}

// ReplayRemote offers every record in batch to the remote table. An ID that
// already exists there is skipped. A failed existence check counts as "not
// present", which can produce a duplicate insert attempt that the table's key
// then rejects. Each ID is handled on its own; one failure does not stop the
// rest of the batch.
func (r *Reconciler) ReplayRemote(remote repositories.UserRepository, batch models.UserMap) SyncReport {
	report := SyncReport{Failed: make(map[string]error)}

	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		user := batch[id]
		user.ID = id

		exists, err := remote.Exists(id)
		if err != nil {
			r.logger.Warn("existence check failed, assuming absent", zap.String("user_id", id), zap.Error(err))
			exists = false
		}
		if exists {
			r.logger.Info("already exists, skipping", zap.String("user_id", id))
			report.Skipped = append(report.Skipped, id)
			r.publish(EventUserSkipped, user)
			continue
		}

		if err := remote.Insert(&user); err != nil {
			r.logger.Error("failed to insert user", zap.String("user_id", id), zap.Error(err))
			report.Failed[id] = err
			continue
		}
		r.logger.Info("user inserted", zap.String("user_id", id))
		report.Inserted = append(report.Inserted, id)
		r.publish(EventUserSynced, user)
	}
	return report
}

func (r *Reconciler) publish(event string, user models.User) {
	if r.publisher == nil {
		return
	}
	payload := UserEvent{Event: event, UserID: user.ID, User: user, At: time.Now().UTC()}
	if err := r.publisher.Publish(event, payload); err != nil {
		r.logger.Warn("failed to publish user event", zap.String("event", event), zap.String("user_id", user.ID), zap.Error(err))
	}
}
