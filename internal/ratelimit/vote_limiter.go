package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyVote = "vote:voter:%s"

type Params struct {
	fx.In

	Config  config.Config
	Holder  *config.VotingConfigHolder
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// VoteLimiter throttles vote submissions per voter. A voter is identified by
// user id when present, otherwise by client address. When redis is not
// configured the limiter is disabled and every vote passes.
type VoteLimiter struct {
	bucket  *TokenBucket
	holder  *config.VotingConfigHolder
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewVoteLimiter(p Params) *VoteLimiter {
	addr := strings.TrimSpace(p.Config.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Config.RedisPassword),
		DB:       p.Config.RedisDB,
	})

	return &VoteLimiter{
		bucket:  NewTokenBucket(client),
		holder:  p.Holder,
		log:     p.Log.Named("ratelimit.vote"),
		metrics: p.Metrics,
	}
}

func (l *VoteLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowVoter fails open: if redis is unreachable the vote goes through and
// the failure is logged.
func (l *VoteLimiter) AllowVoter(ctx context.Context, voter string) bool {
	if !l.Enabled() {
		return true
	}

	voter = strings.TrimSpace(voter)
	if voter == "" {
		return true
	}

	cfg := l.holder.Get()
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyVote, voter), cfg.VoteRatePerSecond, cfg.VoteBurst)
	if err != nil {
		l.log.Warn("vote rate limit check failed, allowing", zap.Error(err))
		return true
	}

	if res.Allowed {
		l.metrics.RecordRateLimitAllowed(ctx, "voting")
	} else {
		l.metrics.RecordRateLimitDenied(ctx, "voting", "bucket_empty")
	}
	return res.Allowed
}
