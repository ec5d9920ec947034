package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/lael-77/NDL-sub001/external/evaluator"
	"github.com/lael-77/NDL-sub001/external/notifier"
	"github.com/lael-77/NDL-sub001/internal/config"
	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/domain/signature"
	"github.com/lael-77/NDL-sub001/internal/domain/team"
	"github.com/lael-77/NDL-sub001/internal/eventbus"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/account/authz"
	cacherepo "github.com/lael-77/NDL-sub001/internal/infrastructure/repository/cache"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/repository/memory"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/repository/postgres"
	"github.com/lael-77/NDL-sub001/internal/interfaces/httpapi"
	basecache "github.com/lael-77/NDL-sub001/internal/platform/cache"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
	"github.com/lael-77/NDL-sub001/internal/platform/resilience"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

// App owns the wired service graph and the background loops around it.
type App struct {
	Server *http.Server

	cfg         config.Config
	logger      *logging.Logger
	bus         *eventbus.Bus
	db          *sqlx.DB
	broadcaster *usecase.TimerBroadcaster
	matchRepo   match.Repository
	notifier    *notifier.Publisher
	evaluator   *evaluator.Client
}

type repositories struct {
	matches    match.Repository
	lineups    lineup.Repository
	scores     judging.Repository
	autoScores autoscore.Repository
	signatures signature.Repository
	results    result.Repository
	teams      team.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	bus := eventbus.New(logger)

	repos, db, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.matches = cacherepo.NewMatchRepository(repos.matches, store)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
		repos.lineups = cacherepo.NewLineupRepository(repos.lineups, store)
		repos.signatures = cacherepo.NewSignatureRepository(repos.signatures, store)
		repos.results = cacherepo.NewResultRepository(repos.results, store)
	}

	scoringSvc := usecase.NewScoringService(repos.scores, repos.autoScores, repos.results, logger)
	matchSvc := usecase.NewMatchService(
		repos.matches,
		repos.lineups,
		repos.scores,
		repos.autoScores,
		repos.signatures,
		repos.teams,
		scoringSvc,
		bus,
		logger,
	)
	matchSvc.SetDefaultDuration(cfg.MatchDuration)
	consensusSvc := usecase.NewConsensusService(repos.matches, repos.scores, cfg.DiscrepancyThreshold)
	recomputeSvc := usecase.NewRecomputeService(repos.matches, repos.results, scoringSvc, logger)
	recomputeSvc.SetDefaultWorkers(cfg.RecomputeMaxWorkers)

	verifier := authz.NewClient(
		&http.Client{Timeout: cfg.AuthzTimeout},
		cfg.AuthzBaseURL,
		cfg.AuthzIntrospectURL,
		cfg.AuthzAdminKey,
		cfg.CacheTTL,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AuthzCircuitEnabled,
			FailureThreshold: cfg.AuthzCircuitFailureCount,
			OpenTimeout:      cfg.AuthzCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AuthzCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(matchSvc, scoringSvc, consensusSvc, recomputeSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	app := &App{
		Server:      server,
		cfg:         cfg,
		logger:      logger,
		bus:         bus,
		db:          db,
		broadcaster: usecase.NewTimerBroadcaster(repos.matches, bus, logger, cfg.TimerTickInterval),
		matchRepo:   repos.matches,
	}

	if cfg.NotifierEnabled {
		app.notifier = notifier.NewPublisher(notifier.PublisherConfig{
			BaseURL:          cfg.NotifierBaseURL,
			Token:            cfg.NotifierToken,
			TargetBaseURL:    cfg.NotifierTargetBaseURL,
			Retries:          cfg.NotifierRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.NotifierCircuitEnabled,
				FailureThreshold: cfg.NotifierCircuitFailureCount,
				OpenTimeout:      cfg.NotifierCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.NotifierCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	if cfg.EvaluatorEnabled {
		app.evaluator = evaluator.NewClient(evaluator.ClientConfig{
			HTTPClient: &http.Client{Timeout: cfg.EvaluatorTimeout},
			BaseURL:    cfg.EvaluatorBaseURL,
			Token:      cfg.EvaluatorToken,
			Timeout:    cfg.EvaluatorTimeout,
			MaxRetries: cfg.EvaluatorMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.EvaluatorCircuitEnabled,
				FailureThreshold: cfg.EvaluatorCircuitFailureCount,
				OpenTimeout:      cfg.EvaluatorCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.EvaluatorCircuitHalfOpenMaxReq,
			},
		})
	}

	return app, nil
}

// Start launches the timer broadcaster and the event bridges. It returns
// immediately; the loops exit when ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	go a.broadcaster.Run(ctx)

	if a.notifier != nil {
		if err := a.startNotifierBridge(ctx); err != nil {
			return err
		}
	}
	if a.evaluator != nil {
		if err := a.startEvaluatorBridge(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)
	if closeErr := a.bus.Close(); err == nil {
		err = closeErr
	}
	if a.db != nil {
		if closeErr := a.db.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := otelsqlx.Connect("postgres",
			normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return repositories{}, nil, err
		}

		logger.Info("storage ready", "driver", cfg.StorageDriver, "db", dbNameFromURL(cfg.DBURL))
		return repositories{
			matches:    postgres.NewMatchRepository(db),
			lineups:    postgres.NewLineupRepository(db),
			scores:     postgres.NewJudgeScoreRepository(db),
			autoScores: postgres.NewAutoScoreRepository(db),
			signatures: postgres.NewSignatureRepository(db),
			results:    postgres.NewResultRepository(db),
			teams:      postgres.NewTeamRepository(db),
		}, db, nil
	default:
		logger.Info("storage ready", "driver", cfg.StorageDriver)
		return repositories{
			matches:    memory.NewMatchRepository(memory.SeedMatches()),
			lineups:    memory.NewLineupRepository(),
			scores:     memory.NewJudgeScoreRepository(),
			autoScores: memory.NewAutoScoreRepository(),
			signatures: memory.NewSignatureRepository(),
			results:    memory.NewResultRepository(),
			teams:      memory.NewTeamRepository(memory.SeedTeams()),
		}, nil, nil
	}
}
