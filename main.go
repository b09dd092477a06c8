package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/JeroenBertels/glh-timer/api"
	"github.com/JeroenBertels/glh-timer/config"
	"github.com/JeroenBertels/glh-timer/core"
	"github.com/JeroenBertels/glh-timer/migrations"
)

var testCtx, testCancel = context.WithCancel(context.Background())

func resolveFile(files ...string) (string, error) {
	for _, file := range files {
		if len(file) == 0 {
			continue
		}
		if _, err := os.Stat(file); err == nil {
			return file, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", os.ErrNotExist
}

// getConfig reads config with filename from '--config' flag.
//
// If flag is not set, GLH_TIMER_CONFIG environment variable
// is used as fallback.
func getConfig(cmd *cobra.Command) (config.Config, error) {
	flagFilename, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	envFilename := os.Getenv("GLH_TIMER_CONFIG")
	resolved, err := resolveFile(flagFilename, envFilename)
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadFromFile(resolved)
}

func isServerError(err error) bool {
	return err != nil && err != http.ErrServerClosed
}

func newServer(logger *log.Logger) *echo.Echo {
	srv := echo.New()
	srv.Logger = logger
	srv.HideBanner, srv.HidePort = true, true
	srv.Pre(middleware.RemoveTrailingSlash())
	srv.Use(middleware.Recover(), middleware.Gzip())
	return srv
}

// serverMain starts timer API server.
func serverMain(cmd *cobra.Command, _ []string) {
	cfg, err := getConfig(cmd)
	if err != nil {
		panic(err)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4281
	}
	c, err := core.NewCore(cfg)
	if err != nil {
		panic(err)
	}
	if err := c.SetupAllStores(); err != nil {
		panic(err)
	}
	if err := c.Start(); err != nil {
		panic(err)
	}
	defer c.Stop()
	v := api.NewView(c)
	var waiter sync.WaitGroup
	defer waiter.Wait()
	ctx, cancel := signal.NotifyContext(testCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	srv := newServer(c.Logger())
	v.Register(srv.Group("/api"))
	waiter.Add(1)
	go func() {
		defer waiter.Done()
		defer cancel()
		if err := srv.Start(cfg.Server.Address()); isServerError(err) {
			c.Logger().Error(err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			c.Logger().Error(err)
		}
	}()
	<-ctx.Done()
}

// migrateMain applies database migrations.
//
// With 'unapply' argument all migrations are unapplied in
// reverse order. Flag '--create-data' additionally creates
// admin user and repairs overall parts.
func migrateMain(cmd *cobra.Command, args []string) {
	createData, err := cmd.Flags().GetBool("create-data")
	if err != nil {
		panic(err)
	}
	cfg, err := getConfig(cmd)
	if err != nil {
		panic(err)
	}
	c, err := core.NewCore(cfg)
	if err != nil {
		panic(err)
	}
	if err := c.SetupAllStores(); err != nil {
		panic(err)
	}
	ctx := context.Background()
	if len(args) > 0 && args[0] == "unapply" {
		if err := migrations.Unapply(ctx, c.DB, c.Dialect()); err != nil {
			panic(err)
		}
		return
	}
	err = migrations.Apply(ctx, c.DB, c.Dialect(), time.Now().Unix())
	if err != nil {
		panic(err)
	}
	if createData {
		if err := core.CreateData(ctx, c); err != nil {
			panic(err)
		}
	}
}

func versionMain(cmd *cobra.Command, _ []string) {
	println("glh-timer version:", config.Version)
}

func main() {
	_ = godotenv.Load()
	rootCmd := cobra.Command{Use: os.Args[0]}
	rootCmd.PersistentFlags().String("config", "config.json", "")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "server",
		Run:   serverMain,
		Short: "Starts API server",
	})
	migrateCmd := cobra.Command{
		Use:   "migrate",
		Run:   migrateMain,
		Short: "Applies migrations to database",
	}
	migrateCmd.Flags().Bool("create-data", false, "Create default objects")
	rootCmd.AddCommand(&migrateCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Run:   versionMain,
		Short: "Prints information about version",
	})
	rootCmd.AddCommand(&ClientCmd)
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
