package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careerdesk/portal-server-go/internal/repository"
)

// CleanupJob periodically sweeps idle sessions and clears expired
// verification and reset challenges. Expiry is enforced lazily at every
// read; the sweeper only keeps the tables from accumulating dead rows.
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	accountRepo repository.AccountRepository
	idleTimeout time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	accountRepo repository.AccountRepository,
	idleTimeout time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		accountRepo: accountRepo,
		idleTimeout: idleTimeout,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "idle sessions", func(ctx context.Context) (int64, error) {
		return j.sessionRepo.DeleteIdle(ctx, j.idleTimeout)
	})
	j.runCleanup(ctx, "expired challenges", j.accountRepo.ClearExpiredChallenges)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
