package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/transdesk/backend/internal/api"
	"github.com/transdesk/backend/internal/auth"
	"github.com/transdesk/backend/internal/provider"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "listen port (default 8080)")
	a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	database, err := a.openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureAdmin(a.cfg.AdminUsername, a.cfg.AdminPassword); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("Admin user ensured: %s", a.cfg.AdminUsername)

	jwtService := auth.NewJWTService(a.cfg.JWTSecret, a.cfg.SessionTTL)
	router := api.NewRouter(database, jwtService, a.cfg, a.newService(database), provider.NewModelLister())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		log.Printf("Data path: %s", a.cfg.DataPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	// running batches get the provider timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Provider.Timeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
