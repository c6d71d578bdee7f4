package main

import (
	"github.com/spf13/cobra"
)

// newRenewCmd builds the renew subcommand: revoke the current session and
// mint a fresh token, regardless of cache freshness.
func newRenewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Force a fresh bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			client, err := newClient(cmd.Context(), logger)
			if err != nil {
				return err
			}

			return client.RenewToken(cmd.Context())
		},
	}
}

// newCloseCmd builds the close subcommand: end an ephemeral-token session
// server-side and forget the token. For persisted-token sessions this is a
// logged no-op.
//
// Ephemeral sessions (--keep-token=false) hold their token in memory only, so
// a standalone close has nothing prior to act on: client construction mints a
// fresh token and Close immediately revokes it. That round trip is the
// defined way to verify the credentials and leave no session behind; callers
// who want to end a long-lived session should call Close on the client that
// owns it instead.
func newCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the session and revoke its token",
		Long: "Close the session server-side and forget its token.\n" +
			"With --keep-token=false this mints a short-lived token and revokes it,\n" +
			"verifying credentials and leaving no open session. With persisted tokens\n" +
			"(the default) close is a no-op; the cached token outlives the process.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			client, err := newClient(cmd.Context(), logger)
			if err != nil {
				return err
			}

			return client.Close(cmd.Context())
		},
	}
}
