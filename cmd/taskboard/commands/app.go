package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/printer"
	"github.com/sakif/taskboard/internal/repository"
	"github.com/sakif/taskboard/internal/server"
	"github.com/sakif/taskboard/internal/service"
)

// app is everything one CLI invocation needs: the stores restored from the
// configured backend. Every command opens one and closes it on return.
type app struct {
	cfg      *config.Config
	store    repository.Store
	identity *service.IdentityService
	tasks    *service.TaskService
	reports  *service.ReportService
}

// logWriter is where CLI diagnostics go. Tests swap it for io.Discard.
var logWriter io.Writer = os.Stderr

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, printer.Error("Invalid configuration", err.Error(),
			[]string{"Run: taskboard config init --config taskboard.yaml"})
	}
	return cfg, nil
}

// cliLogger keeps the store's info-level events out of the terminal unless
// --verbose is set.
func cliLogger(cfg *config.Config) *slog.Logger {
	if verbose {
		return cfg.NewLogger(logWriter)
	}
	return slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cliLogger(cfg)

	store, err := server.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, printer.Error("Cannot open the task store", err.Error(), []string{
			fmt.Sprintf("Check storage.backend (currently %q) in your config", cfg.Storage.Backend),
			"Use TASKBOARD_STORAGE_BACKEND=memory for a throwaway board",
		})
	}

	identity := service.NewIdentityService(store, auth.NewPasswordService(), service.IdentityConfig{
		SignInDelay:     cfg.Auth.SignInDelay,
		VerifyPasswords: cfg.Auth.VerifyPasswords,
	}, logger)
	if err := identity.Restore(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("restoring identity: %w", err)
	}

	tasks := service.NewTaskService(store, identity, logger)
	if err := tasks.Restore(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("restoring tasks: %w", err)
	}

	return &app{
		cfg:      cfg,
		store:    store,
		identity: identity,
		tasks:    tasks,
		reports:  service.NewReportService(tasks, identity),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// session returns the signed-in principal or a "not signed in" error.
func (a *app) session() (*model.Principal, error) {
	p, ok := a.identity.Current()
	if !ok {
		return nil, printer.Error("Not signed in", "This command needs a signed-in user.",
			[]string{"Run: taskboard login --email <email> --password <password>"})
	}
	return p, nil
}

// name resolves a principal ID for display; unknown IDs show as themselves.
func (a *app) name(id string) string {
	if p, ok := a.identity.Lookup(id); ok {
		return p.Name
	}
	return id
}

// resolvePrincipal accepts a roster ID or email address.
func (a *app) resolvePrincipal(ref string) (string, error) {
	if _, ok := a.identity.Lookup(ref); ok {
		return ref, nil
	}
	for _, p := range a.identity.Roster() {
		if p.Email == ref {
			return p.ID, nil
		}
	}
	return "", printer.Error("Unknown user", fmt.Sprintf("No user with ID or email %q.", ref),
		[]string{"Run: taskboard users"})
}

// fail reports err under title. Application errors show their human
// message; anything else is shown as is.
func fail(title string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		var suggestions []string
		switch {
		case errors.Is(err, apperror.ErrUnauthenticated):
			suggestions = []string{"Run: taskboard login --email <email> --password <password>"}
		case errors.Is(err, apperror.ErrNotFound):
			suggestions = []string{"Run: taskboard task list"}
		}
		return printer.Error(title, appErr.Message, suggestions)
	}
	return printer.Error(title, err.Error(), nil)
}
