package vms

import (
	"errors"
	"io"
	"strings"
	"time"

	internalaudit "github.com/Code4Bharat1/VMS-BACKEND/internal/audit"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/challenge"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/rate"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/stores"
	"github.com/Code4Bharat1/VMS-BACKEND/jwt"
	"github.com/Code4Bharat1/VMS-BACKEND/password"
	"github.com/Code4Bharat1/VMS-BACKEND/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ChallengeRenderer turns a challenge answer into a client-displayable image,
// typically a data URI.
type ChallengeRenderer interface {
	Render(answer string) (string, error)
}

// Builder assembles an Engine. A Builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accounts  AccountStore
	auditSink AuditSink
	logger    logrus.FieldLogger
	renderer  ChallengeRenderer
	clock     func() time.Time

	built bool
}

// New returns a Builder starting from DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountStore sets the account persistence collaborator. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithRedis keeps attempt counters and challenges in Redis so that every
// instance behind a load balancer shares them. Without it they live in
// process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit destination. Audit.Enabled must also be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for best-effort failures. When audit is enabled
// without a sink, events are logged through it as well.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithChallengeRenderer replaces the PNG challenge renderer.
func (b *Builder) WithChallengeRenderer(r ChallengeRenderer) *Builder {
	b.renderer = r
	return b
}

// WithClock overrides the clock used for token timestamps and in-memory
// expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	// -------- EXPIRING STORE --------
	var kv stores.Store
	if b.redis != nil {
		kv = stores.NewRedisStore(b.redis, cfg.Store.RedisPrefix)
	} else {
		kv = stores.NewMemoryStore(now)
	}

	// -------- PASSWORD --------
	hasher, err := password.New(cfg.Password.Algorithm, cfg.Password.BcryptCost, cfg.Password.Argon2)
	if err != nil {
		return nil, err
	}

	// -------- TOKENS --------
	// The flow applies MaxClockSkew itself; the manager only bounds it.
	maxFuture := cfg.JWT.MaxClockSkew
	if maxFuture <= 0 || maxFuture > 24*time.Hour {
		maxFuture = 24 * time.Hour
	}
	jm, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWT.SigningMethod)),
		AccessKeys: jwt.Keys{
			Secret:     []byte(cfg.JWT.AccessSecret),
			PrivateKey: cloneBytes(cfg.JWT.AccessPrivateKey),
			PublicKey:  cloneBytes(cfg.JWT.AccessPublicKey),
		},
		RefreshKeys: jwt.Keys{
			Secret:     []byte(cfg.JWT.RefreshSecret),
			PrivateKey: cloneBytes(cfg.JWT.RefreshPrivateKey),
			PublicKey:  cloneBytes(cfg.JWT.RefreshPublicKey),
		},
		AccessTTL:    cfg.JWT.AccessTTL,
		RefreshTTL:   cfg.JWT.RefreshTTL,
		Issuer:       cfg.JWT.Issuer,
		Audience:     cfg.JWT.Audience,
		Leeway:       cfg.JWT.Leeway,
		MaxFutureIAT: maxFuture,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	// -------- CHALLENGES --------
	renderer := b.renderer
	if renderer == nil {
		renderer = challenge.NewImageRenderer(cfg.Challenge.Width, cfg.Challenge.Height, cfg.Challenge.Noise)
	}

	// -------- AUDIT --------
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = internalaudit.NewLogrusSink(logger)
	}

	engine := &Engine{
		config:     cfg,
		accounts:   b.accounts,
		kv:         kv,
		hasher:     hasher,
		jwtManager: jm,
		tracker: rate.NewTracker(kv, rate.Config{
			Window:             cfg.Login.AttemptWindow,
			ChallengeThreshold: cfg.Login.ChallengeThreshold,
		}),
		challenges: challenge.NewManager(kv, renderer, challenge.Config{
			Length: cfg.Challenge.Length,
			TTL:    cfg.Challenge.TTL,
			Now:    now,
		}),
		sessions: session.NewStore(b.accounts),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Now:        now,
			Modules:    auditModules,
			Origin:     auditOrigin,
		}, sink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     now,
	}
	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}
