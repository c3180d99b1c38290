package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ankitmishra23v/micro-fit/backendapi"
	"github.com/ankitmishra23v/micro-fit/credentials"
	"github.com/ankitmishra23v/micro-fit/credentials/filebackend"
	"github.com/ankitmishra23v/micro-fit/gateway"
	"github.com/ankitmishra23v/micro-fit/internal/config"
	"github.com/ankitmishra23v/micro-fit/session"
)

// app bundles the wired session core for the commands
type app struct {
	controller *session.Controller
}

func buildApp(cfg config.Config, log zerolog.Logger) (*app, error) {
	backend, err := filebackend.New(cfg.GetDataFolder())
	if err != nil {
		return nil, err
	}
	store, err := credentials.NewStore(backend)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(cfg, store,
		gateway.WithLogger(log),
		gateway.WithOnSessionExpired(func() {
			fmt.Println("Session expired. Please log in again.")
		}),
	)
	if err != nil {
		return nil, err
	}

	api, err := backendapi.New(gw, backendapi.WithLogger(log))
	if err != nil {
		return nil, err
	}

	registrar, err := newInstallRegistrar(gw, cfg.GetDataFolder())
	if err != nil {
		return nil, err
	}

	controller, err := session.NewController(session.Deps{
		API:         api,
		Credentials: store,
		Refresher:   gw,
		Registrar:   registrar,
	}, session.WithLogger(log))
	if err != nil {
		return nil, err
	}

	controller.InitializeAuth(context.Background())
	return &app{controller: controller}, nil
}

func newRootCommand(cfg config.Config, log zerolog.Logger) *cobra.Command {
	var application *app

	root := &cobra.Command{
		Use:           "microfit",
		Short:         "MicroFit fitness client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(cfg.GetAppName())
			built, err := buildApp(cfg, log)
			if err != nil {
				return err
			}
			application = built
			return nil
		},
	}

	root.AddCommand(newLoginCommand(&application))
	root.AddCommand(newSignupCommand(&application))
	root.AddCommand(newLogoutCommand(&application))
	root.AddCommand(newStatusCommand(&application))
	root.AddCommand(newWhoamiCommand(&application))
	return root
}

func newLoginCommand(application **app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session on-device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*application).controller.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Println("Logged in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCommand(application **app) *cobra.Command {
	var registration session.Registration

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account (you still need to log in)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*application).controller.SignUp(cmd.Context(), registration); err != nil {
				return err
			}
			fmt.Println("Account created. Use 'microfit login' to sign in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&registration.Email, "email", "", "account email")
	cmd.Flags().StringVar(&registration.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&registration.Password, "password", "", "account password")
	cmd.Flags().StringVar(&registration.LoginType, "login-type", "email", "login type")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(application **app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear on-device credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*application).controller.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newStatusCommand(application **app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := (*application).controller
			fmt.Printf("State: %s\n", controller.State())
			if profile := controller.Profile(); profile != nil {
				fmt.Printf("Signed in as %s <%s>\n", profile.FirstName, profile.Email)
			}
			return nil
		},
	}
}

func newWhoamiCommand(application **app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the cached profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := (*application).controller.Profile()
			if profile == nil {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("%s <%s> (id %s)\n", profile.FirstName, profile.Email, profile.ID)
			return nil
		},
	}
}
