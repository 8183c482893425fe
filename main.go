package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"usersync/internal/config"
	"usersync/internal/database"
	"usersync/internal/handlers"
	"usersync/internal/logging"
	"usersync/internal/models"
	"usersync/internal/prompt"
	"usersync/internal/repositories"
	"usersync/internal/services"
	"usersync/pkg/rabbitmq"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:          "usersync",
		Short:        "Collect a user record and mirror it into the Users table",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, opts, v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("local-path", "", "path of the local JSON store")
	flags.String("driver", "", "remote driver (postgres|sqlite|memory)")
	flags.String("dsn", "", "remote connection string")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	_ = v.BindPFlag("local.path", flags.Lookup("local-path"))
	_ = v.BindPFlag("remote.driver", flags.Lookup("driver"))
	_ = v.BindPFlag("remote.dsn", flags.Lookup("dsn"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	cmd.AddCommand(&cobra.Command{
		Use:   "collect",
		Short: "Run an interactive session (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, opts, v)
		},
	})
	cmd.AddCommand(newShowCommand(opts, v))
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP view of the Users table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, v)
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			return a.serve()
		},
	})

	return cmd
}

func newShowCommand(opts *rootOptions, v *viper.Viper) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print users from the remote table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, v)
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			return a.show(id)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "only show this user ID")
	return cmd
}

func runCollect(cmd *cobra.Command, opts *rootOptions, v *viper.Viper) error {
	a, err := newApp(cmd, opts, v)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	return a.collect()
}

// app is one session: its configuration, logger and I/O.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	fs      afero.Fs
	console *prompt.Console
	out     io.Writer
}

func newApp(cmd *cobra.Command, opts *rootOptions, v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v, opts.configFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger.With(zap.String("session", uuid.NewString())),
		fs:      afero.NewOsFs(),
		console: prompt.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), int(os.Stdin.Fd())),
		out:     cmd.OutOrStdout(),
	}, nil
}

// collectCredentials asks for whatever the postgres connection still lacks.
func (a *app) collectCredentials() error {
	r := &a.cfg.Remote
	if !r.NeedsCredentials() {
		return nil
	}
	var err error
	if r.Server == "" {
		if r.Server, err = a.console.Prompt("Enter server name: "); err != nil {
			return fmt.Errorf("failed to read server name: %w", err)
		}
	}
	if r.Username == "" {
		if r.Username, err = a.console.Prompt("Enter user name: "); err != nil {
			return fmt.Errorf("failed to read user name: %w", err)
		}
	}
	if r.Password == "" {
		if r.Password, err = a.console.Password("Enter password: "); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) publisher() services.EventPublisher {
	if a.cfg.RabbitMQ.URL == "" {
		return nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: a.cfg.RabbitMQ.URL, Queue: a.cfg.RabbitMQ.Queue})
	if err != nil {
		a.logger.Warn("user events disabled", zap.Error(err))
		return nil
	}
	return client
}

// collect runs the interactive session. Local persistence always happens; a
// remote failure is reported and the session ends normally. Only a local
// store that cannot be written fails the run.
func (a *app) collect() error {
	if err := a.collectCredentials(); err != nil {
		return err
	}

	store := repositories.NewLocalStore(a.fs, a.logger)
	if err := store.Initialize(a.cfg.LocalPath); err != nil {
		return err
	}
	local := store.Load(a.cfg.LocalPath)

	user, err := services.NewRecordBuilder(a.console).Build()
	if err != nil {
		return err
	}
	batch := models.UserMap{user.ID: user}

	publisher := a.publisher()
	if closer, ok := publisher.(io.Closer); ok {
		defer closer.Close()
	}
	reconciler := services.NewReconciler(store, a.cfg.LocalPath, publisher, a.logger)

	_, saveErr := reconciler.MergeLocal(local, batch)

	err = database.WithSession(a.cfg.Remote, a.logger, func(s *database.Session) error {
		fmt.Fprintln(a.out, "Connection successful!")
		report := reconciler.ReplayRemote(s.Users, batch)
		for _, id := range report.Skipped {
			fmt.Fprintf(a.out, "ID %s already exists. Skipping insertion.\n", id)
		}
		for id, insertErr := range report.Failed {
			fmt.Fprintf(a.out, "Error inserting user data for ID %s: %v\n", id, insertErr)
		}

		choice, err := a.console.Prompt("Would you like to display all records or search by User ID? (all/search): ")
		if err != nil {
			return fmt.Errorf("failed to read display choice: %w", err)
		}
		display := services.NewDisplayService(s.Users)
		err = display.Choose(a.out, choice, func() (string, error) {
			return a.console.Prompt("Enter User ID to search: ")
		})
		if errors.Is(err, services.ErrInvalidChoice) {
			return nil
		}
		return err
	})
	if err != nil {
		a.logger.Warn("remote step failed", zap.Error(err))
		fmt.Fprintf(a.out, "Remote store error: %v\n", err)
	}

	return saveErr
}

func (a *app) show(id string) error {
	if err := a.collectCredentials(); err != nil {
		return err
	}
	return database.WithSession(a.cfg.Remote, a.logger, func(s *database.Session) error {
		return services.NewDisplayService(s.Users).Show(a.out, id)
	})
}

// serve holds one remote session for the lifetime of the HTTP server.
func (a *app) serve() error {
	if err := a.collectCredentials(); err != nil {
		return err
	}
	return database.WithSession(a.cfg.Remote, a.logger, func(s *database.Session) error {
		server := handlers.NewApp(services.NewDisplayService(s.Users), a.logger)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("starting server", zap.String("port", a.cfg.HTTPPort))
			errCh <- server.Listen(a.cfg.HTTPPort)
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-quit:
			a.logger.Info("shutting down server")
			return server.Shutdown()
		}
	})
}
