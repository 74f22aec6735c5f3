package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/photosync/photosync/internal/api/handler"
	"github.com/photosync/photosync/internal/core/ports"
	mongostore "github.com/photosync/photosync/internal/infrastructure/db/mongo"
	redisstore "github.com/photosync/photosync/internal/infrastructure/db/redis"
	"github.com/photosync/photosync/internal/infrastructure/db/sqldb"
	"github.com/photosync/photosync/internal/pkg/config"
)

// Stores holds the repositories selected by configuration together with the
// connections behind them.
type Stores struct {
	Users      ports.UserRepository
	Tokens     ports.TokenRepository
	Categories ports.CategoryRepository
	Audit      ports.AuditRepository

	// Checks feed the readiness probe.
	Checks map[string]handler.Pinger

	sql     *sqldb.DB
	mongoDB *mongo.Database
	closers []func(context.Context) error
	log     zerolog.Logger
}

// OpenSQL connects to the relational store named by cfg. It fails for the
// mongo driver, which has no SQL schema to manage.
func OpenSQL(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqldb.DB, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		return sqldb.Open(ctx, sqldb.DriverPostgres, cfg.Store.DatabaseURL, log)
	case config.StoreSQLite:
		return sqldb.Open(ctx, sqldb.DriverSQLite, sqldb.SQLiteDSN(cfg.Store.SQLitePath), log)
	default:
		return nil, fmt.Errorf("store driver %q has no sql migrations", cfg.Store.Driver)
	}
}

// OpenStores connects every backend cfg asks for. On error, whatever was
// already opened is closed again.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *Stores, err error) {
	s := &Stores{
		Checks: make(map[string]handler.Pinger),
		log:    log,
	}
	defer func() {
		if err != nil {
			_ = s.Close(context.Background())
		}
	}()

	switch cfg.Store.Driver {
	case config.StorePostgres, config.StoreSQLite:
		db, err := OpenSQL(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.sql = db
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })
		s.Checks["database"] = db.Ping

		s.Users = sqldb.NewUserRepository(db)
		s.Tokens = sqldb.NewTokenRepository(db)
		s.Categories = sqldb.NewCategoryRepository(db)
		s.Audit = sqldb.NewAuditRepository(db)

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s.mongoDB = db
		s.closers = append(s.closers, client.Disconnect)
		s.Checks["database"] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

		s.Users = mongostore.NewUserRepository(db)
		s.Tokens = mongostore.NewTokenRepository(db)
		s.Categories = mongostore.NewCategoryRepository(db)
		s.Audit = mongostore.NewAuditRepository(db)

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.TokenStore == config.TokenStoreRedis {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		s.Checks["redis"] = redisstore.Ping(client)
		s.Tokens = redisstore.NewTokenStore(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("access tokens stored in redis")
	}

	return s, nil
}

// Prepare brings the schema up to date: goose migrations for SQL stores,
// indexes for mongo.
func (s *Stores) Prepare(ctx context.Context) error {
	if s.sql != nil {
		return s.sql.Migrate(ctx)
	}
	if s.mongoDB != nil {
		return mongostore.EnsureIndexes(ctx, s.mongoDB)
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
