package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/activity"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/config"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/pagelock"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
)

// PolicyService resolves the effective access policy — the activated
// AccessSetting row, or the env defaults when none is activated — and
// pushes it into the lock registry and the activity tracker.
type PolicyService struct {
	settings *repository.SettingRepo
	cfg      *config.Config
	registry *pagelock.Registry
	tracker  *activity.Tracker
}

func NewPolicyService(settings *repository.SettingRepo, cfg *config.Config, registry *pagelock.Registry, tracker *activity.Tracker) *PolicyService {
	return &PolicyService{settings: settings, cfg: cfg, registry: registry, tracker: tracker}
}

// Current returns the effective policy.
func (p *PolicyService) Current(ctx context.Context) *models.AccessSetting {
	setting, err := p.settings.GetActive(ctx)
	if err == nil {
		return setting
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("Failed to load active access setting, using defaults: %v", err)
	}
	return &models.AccessSetting{
		Name:                        "defaults",
		PageLockSeconds:             p.cfg.PageLockSeconds,
		ActivityTimeoutSeconds:      p.cfg.ActivityTimeoutSeconds,
		MaxAdminsNumber:             p.cfg.MaxAdminsNumber,
		MaxModersNumber:             p.cfg.MaxModersNumber,
		ActivityPeriodCounter:       int64(p.cfg.ActivityPeriodCounter),
		ActivityCounterMaxThreshold: int64(p.cfg.ActivityCounterMaxThreshold),
	}
}

// Apply reconfigures the registry and the tracker from the effective
// policy. Called at startup and after a setting is activated or deleted.
func (p *PolicyService) Apply(ctx context.Context) {
	setting := p.Current(ctx)
	p.registry.SetTimeout(time.Duration(setting.PageLockSeconds) * time.Second)
	p.tracker.Configure(
		time.Duration(setting.ActivityTimeoutSeconds)*time.Second,
		setting.ActivityPeriodCounter,
		setting.ActivityCounterMaxThreshold,
	)
	log.Printf("Access policy applied: %q (page lock %ds, activity timeout %ds, period %d, max threshold %d)",
		setting.Name, setting.PageLockSeconds, setting.ActivityTimeoutSeconds,
		setting.ActivityPeriodCounter, setting.ActivityCounterMaxThreshold)
}
