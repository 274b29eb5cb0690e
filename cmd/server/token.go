// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/config"
)

// runTokenCommand prints an admin token signed with the configured secret.
func runTokenCommand(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	subject := fs.String("subject", "admin", "token subject, recorded as the rebuild reason")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.Security.AdminJWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", *ttl)
	}

	manager, err := auth.NewJWTManager(cfg.Security.AdminJWTSecret)
	if err != nil {
		return err
	}
	token, err := manager.GenerateToken(*subject, auth.RoleAdmin, *ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
