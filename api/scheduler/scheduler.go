package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mentorhub/mentorhub-api/databases"
	"github.com/mentorhub/mentorhub-api/models"
)

// Scheduler runs periodic background jobs. Its one job today is counter
// reconciliation: booking bumps the per-user session counters best-effort,
// so the stored counters can drift from the sessions collection. This job
// recomputes them from count queries and rewrites any that differ.
type Scheduler struct {
	cron       *cron.Cron
	UDB        databases.UserDatabase
	SDB        databases.SessionDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

const reconcileJobName = "session_counter_reconciliation"

// NewScheduler creates a new scheduler instance
func NewScheduler(
	uDB databases.UserDatabase,
	sDB databases.SessionDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		UDB:        uDB,
		SDB:        sDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Reconcile session counters hourly
	_, err := s.cron.AddFunc("0 * * * *", s.ReconcileSessionCounters)
	if err != nil {
		zap.S().Errorw("failed to register counter reconciliation job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// ReconcileSessionCounters recomputes every user's sessionsBooked and
// sessionsCompleted from the sessions collection
func (s *Scheduler) ReconcileSessionCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, reconcileJobName, s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for counter reconciliation", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("counter reconciliation already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, reconcileJobName, s.instanceID)

	zap.S().Infow("running session counter reconciliation", "instance", s.instanceID)

	users, err := s.UDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to list users for reconciliation", "error", err)
		return
	}

	var fixed int
	for _, user := range users {
		if s.reconcileUser(ctx, user) {
			fixed++
		}
	}

	zap.S().Infow("session counter reconciliation complete",
		"usersChecked", len(users),
		"usersFixed", fixed,
	)
}

// reconcileUser recomputes one user's counters and reports whether a
// correction was written
func (s *Scheduler) reconcileUser(ctx context.Context, user models.User) bool {
	participantFilter := bson.M{"$or": []bson.M{
		{"mentor": user.ID},
		{"mentee": user.ID},
	}}

	booked, err := s.SDB.CountDocuments(ctx, participantFilter)
	if err != nil {
		zap.S().Errorw("failed to count booked sessions", "userId", user.ID, "error", err)
		return false
	}

	completedFilter := bson.M{
		"$or": []bson.M{
			{"mentor": user.ID},
			{"mentee": user.ID},
		},
		"status": models.SessionStatusCompleted,
	}
	completed, err := s.SDB.CountDocuments(ctx, completedFilter)
	if err != nil {
		zap.S().Errorw("failed to count completed sessions", "userId", user.ID, "error", err)
		return false
	}

	if booked == user.Details.SessionsBooked && completed == user.Details.SessionsCompleted {
		return false
	}

	uID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		zap.S().Warnw("skipping reconciliation for malformed user id", "userId", user.ID)
		return false
	}

	update := bson.M{"$set": bson.M{
		"user.sessionsBooked":    booked,
		"user.sessionsCompleted": completed,
	}}
	if _, err := s.UDB.UpdateOne(ctx, bson.M{"_id": uID}, update); err != nil {
		zap.S().Errorw("failed to write reconciled counters", "userId", user.ID, "error", err)
		return false
	}

	zap.S().Infow("reconciled session counters",
		"userId", user.ID,
		"sessionsBooked", booked,
		"sessionsCompleted", completed,
	)
	return true
}
