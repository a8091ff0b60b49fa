package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// VotingConfig carries the tunable voting policy. It is hot-reloadable so
// abuse thresholds and retention can be adjusted without a restart.
type VotingConfig struct {
	// AbuseStreakThreshold is the number of consecutive same-role wins in a
	// single day that flags a voter.
	AbuseStreakThreshold int `mapstructure:"abuseStreakThreshold"`
	// AbuseMinVotes is the minimum number of same-day votes before the
	// detector considers the pattern at all.
	AbuseMinVotes int `mapstructure:"abuseMinVotes"`
	// RejectAbusiveVotes makes the vote service refuse flagged voters instead
	// of recording advisory-only.
	RejectAbusiveVotes bool `mapstructure:"rejectAbusiveVotes"`
	// SnapshotRetentionDays controls how long ranking snapshots are kept.
	SnapshotRetentionDays int `mapstructure:"snapshotRetentionDays"`
	// SnapshotPageSize is the ranking pagination size used by the archiver.
	SnapshotPageSize int `mapstructure:"snapshotPageSize"`
	// VoteRatePerSecond / VoteBurst parameterize the per-voter token bucket.
	VoteRatePerSecond float64 `mapstructure:"voteRatePerSecond"`
	VoteBurst         int     `mapstructure:"voteBurst"`
}

func DefaultVotingConfig() VotingConfig {
	return VotingConfig{
		AbuseStreakThreshold:  5,
		AbuseMinVotes:         5,
		RejectAbusiveVotes:    false,
		SnapshotRetentionDays: 60,
		SnapshotPageSize:      10,
		VoteRatePerSecond:     1,
		VoteBurst:             10,
	}
}

type VotingConfigHolder struct {
	current atomic.Value // holds VotingConfig
}

func NewVotingConfigHolder() (*VotingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("voting")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/versus/config")
	v.AddConfigPath("/etc/versus")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VERSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultVotingConfig()
	v.SetDefault("voting.abuseStreakThreshold", defaults.AbuseStreakThreshold)
	v.SetDefault("voting.abuseMinVotes", defaults.AbuseMinVotes)
	v.SetDefault("voting.rejectAbusiveVotes", defaults.RejectAbusiveVotes)
	v.SetDefault("voting.snapshotRetentionDays", defaults.SnapshotRetentionDays)
	v.SetDefault("voting.snapshotPageSize", defaults.SnapshotPageSize)
	v.SetDefault("voting.voteRatePerSecond", defaults.VoteRatePerSecond)
	v.SetDefault("voting.voteBurst", defaults.VoteBurst)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg VotingConfig
	if err := v.UnmarshalKey("voting", &cfg); err != nil {
		return nil, err
	}
	if err := validateVotingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &VotingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated VotingConfig
		if err := v.UnmarshalKey("voting", &updated); err != nil {
			log.Printf("[voting-config] reload failed: %v", err)
			return
		}
		if err := validateVotingConfig(updated); err != nil {
			log.Printf("[voting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[voting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticVotingConfigHolder wraps a fixed VotingConfig without any file
// watching. Useful when the policy is supplied programmatically.
func NewStaticVotingConfigHolder(cfg VotingConfig) *VotingConfigHolder {
	holder := &VotingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *VotingConfigHolder) Get() VotingConfig {
	return h.current.Load().(VotingConfig)
}

func validateVotingConfig(cfg VotingConfig) error {
	if cfg.AbuseStreakThreshold <= 1 {
		return errors.New("voting.abuseStreakThreshold must be greater than 1")
	}
	if cfg.AbuseMinVotes <= 0 {
		return errors.New("voting.abuseMinVotes must be positive")
	}
	if cfg.SnapshotRetentionDays <= 0 {
		return errors.New("voting.snapshotRetentionDays must be positive")
	}
	if cfg.SnapshotPageSize <= 0 {
		return errors.New("voting.snapshotPageSize must be positive")
	}
	return nil
}
