package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/config"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/connmgmt"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/graph"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/harness"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/modeler"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/monitoring"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/repository"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/store"
)

// session is everything a cluster command needs.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	cluster  *cluster.Cluster
	rms      *rms.Client
	modeler  *modeler.ReplicationsModeler
	monitors *monitoring.Client
	graphs   *graph.Client

	// store and ledger are nil unless the command asked for a ledger or the
	// repository backend is local.
	store  *store.Store
	ledger *harness.Ledger
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

type sessionOptions struct {
	ledger   bool
	database string // overrides store.path
}

// loadConfig loads the configuration and reports failures through f.
func (o *RootOptions) loadConfig(f *OutputFormatter) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	return cfg, nil
}

// openStore opens the ledger database named by the configuration or override.
func openStore(cfg *config.Config, override string, f *OutputFormatter) (*store.Store, error) {
	path := cfg.Store.Path
	if override != "" {
		path = override
	}
	f.VerboseLog("opening store %s", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

// connect loads the configuration, logs in and wires the clients.
func (o *RootOptions) connect(ctx context.Context, cmd *cobra.Command, f *OutputFormatter, so sessionOptions) (*session, error) {
	cfg, err := o.loadConfig(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCluster(); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "cluster is not configured", err)
	}

	s := &session{cfg: cfg, logger: o.logger(cmd)}

	if so.ledger || cfg.Repository.Backend == config.BackendLocal {
		st, err := openStore(cfg, so.database, f)
		if err != nil {
			return nil, err
		}
		s.store = st
	}
	if so.ledger {
		s.ledger = harness.NewLedger(s.store, s.logger)
	}

	clusterOpts := []cluster.Option{cluster.WithTimeout(cfg.Cluster.Timeout), cluster.WithLogger(s.logger)}
	if o.Doer != nil {
		clusterOpts = append(clusterOpts, cluster.WithDoer(o.Doer))
	}
	f.VerboseLog("connecting to %s", cfg.Cluster.Endpoint)
	c, err := cluster.Connect(ctx, cfg.ConnectionData(), clusterOpts...)
	if err != nil {
		s.Close()
		var loginErr *cluster.LoginError
		if errors.As(err, &loginErr) {
			return nil, f.Fail(ExitCommandError, ErrCodeCluster, "login failed", err)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeCluster, "failed to connect to cluster", err)
	}
	s.cluster = c

	rmsOpts := []rms.Option{
		rms.WithLogger(s.logger),
		rms.WithPollInterval(cfg.Poll.Interval),
		rms.WithMaxAttempts(cfg.Poll.MaxAttempts),
	}
	if s.ledger != nil {
		rmsOpts = append(rmsOpts, rms.WithPollObserver(s.ledger.ObservePoll))
	}
	s.rms = rms.New(c, rmsOpts...)

	var files modeler.Persistence = repository.New(c)
	if cfg.Repository.Backend == config.BackendLocal {
		files = s.store.Documents()
	}
	s.modeler = modeler.NewReplicationsModeler(files, connmgmt.New(c), s.rms,
		modeler.WithSpace(cfg.Repository.Space), modeler.WithLogger(s.logger))
	s.monitors = monitoring.New(c)
	s.graphs = graph.New(c,
		graph.WithLogger(s.logger),
		graph.WithPollInterval(cfg.Poll.Interval),
		graph.WithMaxAttempts(cfg.Poll.MaxAttempts))

	return s, nil
}
