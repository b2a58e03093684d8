package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/m3-catalog/api/swagger"
	"github.com/noah-isme/m3-catalog/internal/handler"
	"github.com/noah-isme/m3-catalog/internal/middleware"
	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/internal/repository"
	"github.com/noah-isme/m3-catalog/internal/service"
	"github.com/noah-isme/m3-catalog/pkg/config"
	"github.com/noah-isme/m3-catalog/pkg/database"
	"github.com/noah-isme/m3-catalog/pkg/events"
	"github.com/noah-isme/m3-catalog/pkg/logger"
	corsmiddleware "github.com/noah-isme/m3-catalog/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/m3-catalog/pkg/middleware/requestid"
)

func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			if port > 0 {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bus *events.Bus
	if cfg.Events.Enabled || cfg.Suggestions.Enabled {
		if bus, err = events.New(ctx, cfg, logr); err != nil {
			return fmt.Errorf("failed to open %s bus: %w", cfg.Bus.Type, err)
		}
		defer bus.Close()
	}

	var hooks []service.MediaCreatedHook
	if cfg.Events.Enabled {
		publisher := events.NewAsyncPublisher(bus, cfg.Events, logr)
		publisher.Start(ctx)
		defer publisher.Stop()
		hooks = append(hooks, mediaCreatedHook(publisher, logr))
	}

	app := buildServices(cfg, db, logr, hooks)

	group, gctx := errgroup.WithContext(ctx)

	if cfg.Suggestions.Enabled {
		consumer, err := events.NewConsumer(bus, cfg.Events.MaxRetries, cfg.Events.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
		consumer.Handle("tag-suggestions", cfg.Suggestions.Topic, app.suggestions.Handle)
		group.Go(func() error { return consumer.Run(gctx) })
		logr.Info("suggestion consumer enabled", zap.String("topic", cfg.Suggestions.Topic))
	}

	if cfg.Reconciler.Enabled {
		reconciler := service.NewRootReconciler(app.hierarchyRepo, app.metrics, logr)
		if err := reconciler.Start(gctx, cfg.Reconciler.Cron); err != nil {
			return err
		}
		defer reconciler.Stop() //nolint:errcheck
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, db, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logr.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

type services struct {
	medias        *service.MediaService
	tagSets       *service.TagSetService
	tags          *service.TagService
	taggings      *service.TaggingService
	hierarchies   *service.HierarchyService
	bulk          *service.BulkService
	exports       *service.ExportService
	admin         *service.AdminService
	cells         *service.CellService
	suggestions   *service.SuggestionService
	metrics       *service.MetricsService
	hierarchyRepo *repository.HierarchyRepository
}

func buildServices(cfg *config.Config, db *sqlx.DB, logr *zap.Logger, hooks []service.MediaCreatedHook) *services {
	validate := validator.New()
	metrics := service.NewMetricsService()
	pageDefault, pageMax := cfg.Pagination.DefaultSize, cfg.Pagination.MaxSize

	mediaRepo := repository.NewMediaRepository(db)
	tagSetRepo := repository.NewTagSetRepository(db)
	tagRepo := repository.NewTagRepository(db)
	taggingRepo := repository.NewTaggingRepository(db)
	hierarchyRepo := repository.NewHierarchyRepository(db)
	nodeRepo := repository.NewNodeRepository(db)

	medias := service.NewMediaService(mediaRepo, validate, logr, hooks...).WithPageBounds(pageDefault, pageMax)
	tagSets := service.NewTagSetService(tagSetRepo, validate, logr).WithPageBounds(pageDefault, pageMax)
	tags := service.NewTagService(tagRepo, tagSetRepo, validate, logr).WithPageBounds(pageDefault, pageMax)
	taggings := service.NewTaggingService(taggingRepo, validate, logr).WithPageBounds(pageDefault, pageMax)

	return &services{
		medias:        medias,
		tagSets:       tagSets,
		tags:          tags,
		taggings:      taggings,
		hierarchies:   service.NewHierarchyService(db, hierarchyRepo, nodeRepo, validate, logr).WithPageBounds(pageDefault, pageMax),
		bulk:          service.NewBulkService(repository.NewBulkRepository(db), medias, metrics, cfg.Bulk.BatchSize, validate, logr),
		exports:       service.NewExportService(mediaRepo, taggingRepo, nil, logr),
		admin:         service.NewAdminService(db, cfg.Admin.ResetEnabled, logr),
		cells:         service.NewCellService(repository.NewCellRepository(db), tagSetRepo, mediaRepo, logr).WithPageBounds(pageDefault, pageMax),
		suggestions:   service.NewSuggestionService(tagSets, tags, taggings, metrics, logr),
		metrics:       metrics,
		hierarchyRepo: hierarchyRepo,
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, app *services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	handler.RegisterOps(r, handler.NewMetricsHandler(app.metrics, db))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.ConcurrencyLimit(cfg.HTTP.MaxConcurrentRequests, cfg.HTTP.AcquireTimeout, logr))
	handler.Register(api, handler.Handlers{
		Medias:      handler.NewMediaHandler(app.medias),
		TagSets:     handler.NewTagSetHandler(app.tagSets),
		Tags:        handler.NewTagHandler(app.tags),
		Taggings:    handler.NewTaggingHandler(app.taggings),
		Hierarchies: handler.NewHierarchyHandler(app.hierarchies),
		Cells:       handler.NewCellHandler(app.cells),
		Bulk:        handler.NewBulkHandler(app.bulk, cfg.Bulk.MaxLineBytes, logr),
		Exports:     handler.NewExportHandler(app.exports, logr),
		Admin:       handler.NewAdminHandler(app.admin),
	})
	return r
}

func mediaCreatedHook(publisher *events.AsyncPublisher, logr *zap.Logger) service.MediaCreatedHook {
	return func(ctx context.Context, event models.MediaCreatedEvent) {
		out := events.Outgoing{
			Topic:     events.MediaCreatedTopic(event.FileType.String()),
			Payload:   event,
			RequestID: reqidmiddleware.FromContext(ctx),
		}
		if err := publisher.Enqueue(out); err != nil {
			logr.Warn("media created event dropped", zap.Int64("media_id", event.ID), zap.Error(err))
		}
	}
}
