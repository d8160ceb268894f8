package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/existflow/taskboard/internal/auth"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskboard-server",
		Short: "Taskboard sync server",
		Long:  `Stores one board document per signed-in user and serves it to taskboard clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the sync server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newTokenCommand mints a bearer token for a user, signed with the server secret
func newTokenCommand() *cobra.Command {
	var (
		user   string
		avatar string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
			token, err := issuer.Sign(user, avatar)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id, e.g. github|12345")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runServer() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:      logger.ParseLevel(cfg.Logger.Level),
		FilePath:   cfg.Logger.File,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 5,
		Console:    cfg.Logger.Console,
		JSON:       true,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	srv, err := server.New(*cfg)
	if err != nil {
		logger.Error("Failed to create server", logger.F("error", err))
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down sync server")

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
