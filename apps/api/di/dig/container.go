package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/bolsa/apps/api/echo"
	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/finance"
	"github.com/trezcool/bolsa/core/student"
	emailsvc "github.com/trezcool/bolsa/services/email"
	logsvc "github.com/trezcool/bolsa/services/logger"
	ratesvc "github.com/trezcool/bolsa/services/ratesource"
	"github.com/trezcool/bolsa/storage/database"
	inmemdb "github.com/trezcool/bolsa/storage/database/inmem"
	sqlxrepos "github.com/trezcool/bolsa/storage/database/sqlx"
	"github.com/trezcool/bolsa/storage/kvstore"
)

// EngineMemory keeps records in memory instead of PostgreSQL (local runs only).
const EngineMemory = "memory"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type ServerParam struct {
	dig.In
	CandidateSvc *candidate.Service
	StudentSvc   *student.Service
	FinanceSvc   *finance.Service
	Validate     *validator.Validate
	Translator   ut.Translator
	Logger       core.Logger
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newDB returns nil with the memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == EngineMemory {
		loggerParam.Logger.Warn("using the in-memory database: records are lost on exit")
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(db *sqlx.DB) (candidate.Repository, student.Repository) {
	if db == nil {
		mem := inmemdb.Open()
		return inmemdb.NewCandidateRepository(mem), inmemdb.NewStudentRepository(mem)
	}
	return sqlxrepos.NewCandidateRepository(db), sqlxrepos.NewStudentRepository(db)
}

func newKVStore(conf *core.Config, db *sqlx.DB, loggerParam DBLoggerParam) core.KVStore {
	switch conf.KVStore.Backend {
	case "redis":
		store := kvstore.NewRedisStore(conf.KVStore)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			loggerParam.Logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		return store
	case "database":
		if db != nil {
			return kvstore.NewSQLStore(db)
		}
		loggerParam.Logger.Warn("no database: finance values are kept in memory")
	case "memory":
	default:
		loggerParam.Logger.Warn(fmt.Sprintf("unknown kv store backend %q: using memory", conf.KVStore.Backend))
	}
	return kvstore.NewMemoryStore()
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	candidate.RegisterValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	return validate
}

func newRateProvider(conf *core.Config, store core.KVStore, logger core.Logger) *finance.RateProvider {
	source := ratesvc.NewHTTPSource(conf.Finance.RateURL, conf.Finance.RateTimeout)
	return finance.NewRateProvider(source, store, logger, finance.RateOptions{
		LocalCurrency: finance.Currency(conf.Finance.LocalCurrency),
		FallbackRate:  conf.Finance.FallbackRate,
		Timeout:       conf.Finance.RateTimeout,
	})
}

func newPreferenceStore(conf *core.Config, store core.KVStore) *finance.PreferenceStore {
	return finance.NewPreferenceStore(store, finance.Currency(conf.Finance.LocalCurrency))
}

func newFinanceService(
	store core.KVStore,
	rates *finance.RateProvider,
	prefs *finance.PreferenceStore,
	logger core.Logger,
) *finance.Service {
	return finance.NewService(store, rates, prefs, logger)
}

func newStudentService(conf *core.Config, repo student.Repository) *student.Service {
	return student.NewService(repo, finance.Currency(conf.Finance.LocalCurrency))
}

func newServer(conf *core.Config, p ServerParam) *echoapi.Server {
	return echoapi.NewServer(conf, &echoapi.Deps{
		CandidateSvc: p.CandidateSvc,
		StudentSvc:   p.StudentSvc,
		FinanceSvc:   p.FinanceSvc,
		Validate:     p.Validate,
		Translator:   p.Translator,
		Logger:       p.Logger,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newKVStore))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newRateProvider))
	must(c.Provide(newPreferenceStore))
	must(c.Provide(newFinanceService))
	must(c.Provide(newStudentService))
	must(c.Provide(candidate.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
