package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/soulparking/dashboard/internal/audit"
	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/models"
)

func newLoginCmd(e *env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Sign in and keep the session locally",
		Example: `  parkctl login --email admin@soulparking.co.id --password admin123`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := e.open()
			if err != nil {
				return err
			}
			defer l.Close()

			user, err := l.sessions.Login(ctx, strings.TrimSpace(email), password)
			if err != nil {
				if errors.Is(err, parkauth.ErrInvalidCredentials) {
					return errors.New(parkauth.InvalidCredentialsMessage)
				}
				return err
			}

			entry := audit.ByUser(user, models.ActivityAuth, "Login", user.Email+" signed in from parkctl")
			if _, err := l.recorder.Record(ctx, entry); err != nil {
				log.Warn().Err(err).Msg("Failed to record login activity")
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprint(out, "Signed in ")
			fmt.Fprintf(out, "as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := e.open()
			if err != nil {
				return err
			}
			defer l.Close()

			user, err := l.sessions.Current(ctx)
			if err != nil {
				return err
			}
			if err := l.sessions.Logout(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if user == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			entry := audit.ByUser(*user, models.ActivityAuth, "Logout", user.Email+" signed out from parkctl")
			if _, err := l.recorder.Record(ctx, entry); err != nil {
				log.Warn().Err(err).Msg("Failed to record logout activity")
			}
			fmt.Fprintf(out, "Signed out %s\n", user.Email)
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withUser(cmd.Context(), false, func(user *parkauth.User) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s <%s> ", user.Name, user.Email)
				roleColor := color.New(color.FgCyan)
				if user.IsAdmin() {
					roleColor = color.New(color.FgYellow, color.Bold)
				}
				roleColor.Fprintln(out, user.Role)
				return nil
			})
		},
	}
}
