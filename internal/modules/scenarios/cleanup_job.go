package scenarios

import (
	"github.com/rs/zerolog"
)

// CleanupJob removes expired entries from the result cache. It is
// scheduled periodically by the application scheduler.
type CleanupJob struct {
	cache *ResultCache
	log   zerolog.Logger
}

// NewCleanupJob creates a new result cache cleanup job.
func NewCleanupJob(cache *ResultCache, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		cache: cache,
		log:   log.With().Str("job", "result_cache_cleanup").Logger(),
	}
}

// Run executes the cleanup job.
func (j *CleanupJob) Run() error {
	deleted, err := j.cache.DeleteExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired cache entries")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Msg("Result cache cleanup completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "result_cache_cleanup"
}
