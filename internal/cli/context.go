// Package cli provides the command-line interface for netbuilder.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathursrus/LinkedIn-Network/internal/app"
)

// ctxKey is used for storing app context in cobra commands
type ctxKey string

const appKey ctxKey = "app"

// SetApp stores the Application in the command's context
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey, a))
}

// GetApp retrieves the Application from the command's context
func GetApp(cmd *cobra.Command) *app.Application {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey).(*app.Application)
	return a
}

// mustApp returns the Application or an error for commands run without one
func mustApp(cmd *cobra.Command) (*app.Application, error) {
	a := GetApp(cmd)
	if a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}
