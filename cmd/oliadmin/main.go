package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oli-admin/internal/auth"
	"oli-admin/internal/blob"
	"oli-admin/internal/config"
	"oli-admin/internal/importer"
	"oli-admin/internal/render"
	"oli-admin/internal/server"
	"oli-admin/internal/storage"
	"oli-admin/internal/store"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	cfg        *config.Config
	redisAddr  string
	badgerPath string
	password   string
)

var rootCmd = &cobra.Command{
	Use:   "oliadmin",
	Short: "oliadmin - catalog and blog administration console",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the admin web console",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		rdb := openRedis(ctx)
		defer rdb.Close()

		db, err := storage.Open(badgerPath)
		if err != nil {
			logger.Fatal("Failed to open badger", zap.Error(err))
		}
		defer db.Close()
		go storage.RunGC(ctx, db, logger)

		st, closeStore := openStore(ctx, db)
		defer closeStore()

		labels, err := config.LoadLabels(cfg.Display.LabelsFile)
		if err != nil {
			logger.Fatal("Failed to load labels", zap.Error(err))
		}

		authSvc := auth.NewService(rdb, cfg.Auth.SessionTTL, logger)
		blobs := blob.NewBadgerStore(db, "/media/", cfg.Server.MaxUploadBytes, logger)
		renderer := render.NewHTMLRenderer(labels, render.GroupedPrice(cfg.Display.Currency), cfg.Display.PlaceholderImage)

		srv, err := server.NewServer(authSvc, st, blobs, importer.New(logger), renderer, logger, server.Options{
			PlaceholderImage: cfg.Display.PlaceholderImage,
			MaxUploadBytes:   cfg.Server.MaxUploadBytes,
			SecureCookies:    cfg.Server.SecureCookies,
			Labels:           labels,
		})
		if err != nil {
			logger.Fatal("Failed to build server", zap.Error(err))
		}

		go func() {
			if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Server stopped", zap.Error(err))
				cancel()
			}
		}()

		select {
		case <-sigChan:
			logger.Info("Shutting down...")
		case <-ctx.Done():
		}

		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Unclean shutdown", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage console operators",
}

var operatorAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if password == "" {
			logger.Fatal("--password is required")
		}
		ctx := context.Background()
		rdb := openRedis(ctx)
		defer rdb.Close()

		svc := auth.NewService(rdb, cfg.Auth.SessionTTL, logger)
		if err := svc.AddOperator(ctx, args[0], password); err != nil {
			logger.Fatal("Failed to add operator", zap.Error(err))
		}
		logger.Info("Operator added", zap.String("email", args[0]))
	},
}

var operatorRemoveCmd = &cobra.Command{
	Use:   "remove [email]",
	Short: "Delete an operator and revoke their sessions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		rdb := openRedis(ctx)
		defer rdb.Close()

		svc := auth.NewService(rdb, cfg.Auth.SessionTTL, logger)
		if err := svc.RemoveOperator(ctx, args[0]); err != nil {
			logger.Fatal("Failed to remove operator", zap.Error(err))
		}
		logger.Info("Operator removed", zap.String("email", args[0]))
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load products and articles from a YAML file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		f, err := os.Open(args[0])
		if err != nil {
			logger.Fatal("Failed to open seed file", zap.Error(err))
		}
		defer f.Close()

		db, err := storage.Open(badgerPath)
		if err != nil {
			logger.Fatal("Failed to open badger", zap.Error(err))
		}
		defer db.Close()

		st, closeStore := openStore(ctx, db)
		defer closeStore()

		items, articles, err := store.Seed(ctx, st, f)
		if err != nil {
			logger.Fatal("Seed failed", zap.Error(err))
		}
		logger.Info("Seed complete", zap.Int("items", items), zap.Int("articles", articles))
	},
}

func openRedis(ctx context.Context) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.String("addr", redisAddr), zap.Error(err))
	}
	return rdb
}

// openStore picks the document store. Badger stays open either way for blobs.
func openStore(ctx context.Context, db *badger.DB) (store.Store, func()) {
	if cfg.Store.Driver != "mongo" {
		return store.NewBadgerStore(db, logger), func() {}
	}

	ms, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to mongo", zap.Error(err))
	}
	return ms, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ms.Close(closeCtx)
	}
}

func main() {
	var err error
	cfg, err = config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Println("config:", err)
		os.Exit(1)
	}

	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", cfg.Redis.Addr, "Address of Redis server")
	rootCmd.PersistentFlags().StringVar(&badgerPath, "badger", cfg.Store.BadgerPath, "Path to BadgerDB data directory")
	operatorAddCmd.Flags().StringVar(&password, "password", "", "Password for the new operator")

	operatorCmd.AddCommand(operatorAddCmd, operatorRemoveCmd)
	rootCmd.AddCommand(serverCmd, operatorCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
