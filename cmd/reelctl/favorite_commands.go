package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
	"github.com/reelnotes/reelnotes-server/internal/client"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorites with live catalog metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			api, err := ctx.api()
			if err != nil {
				return err
			}
			tmdbClient, err := ctx.catalog()
			if err != nil {
				return err
			}

			var lookup catalog.Lookup
			var imageURL client.ImageURLFunc
			if tmdbClient != nil {
				defer tmdbClient.Close()
				lookup = tmdbClient
				imageURL = tmdbClient.ImageURL
			}

			fc := client.NewFavoritesClient(api, lookup, cfg.Client.HydrateConcurrency, ctx.logger())
			views, err := fc.Load(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return client.Render(cmd.OutOrStdout(), views, imageURL)
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "add <movie-id>",
		Short: "Add a movie to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			externalID, err := parseExternalID(args[0])
			if err != nil {
				return err
			}
			api, err := ctx.api()
			if err != nil {
				return err
			}

			var notePtr *string
			if cmd.Flags().Changed("note") {
				notePtr = &note
			}
			fav, err := api.Add(cmd.Context(), externalID, notePtr)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Favorited %d: %s\n", fav.Item.ExternalID, fav.Item.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Note to attach")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <movie-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a movie from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			externalID, err := parseExternalID(args[0])
			if err != nil {
				return err
			}
			api, err := ctx.api()
			if err != nil {
				return err
			}

			err = api.Remove(cmd.Context(), externalID)
			if client.IsNotFound(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d is not a favorite\n", externalID)
				return nil
			}
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", externalID)
			return nil
		},
	}
}

func newToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <movie-id>...",
		Short: "Flip favorite membership of one or more movies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseExternalID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			api, err := ctx.api()
			if err != nil {
				return err
			}
			entries, err := api.List(cmd.Context())
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			toggle := client.NewOptimisticToggle(api, func(externalID int64, st client.ToggleState) {
				switch {
				case st.Pending:
					fmt.Fprintf(out, "%d: %s...\n", externalID, favoriteLabel(st.Favorited))
				default:
					fmt.Fprintf(out, "%d: %s\n", externalID, favoriteLabel(st.Favorited))
				}
			}, ctx.logger())
			for _, e := range entries {
				toggle.Seed(e.ExternalID)
			}

			var failed error
			for _, id := range ids {
				if _, err := toggle.Toggle(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d: reverted: %v\n", id, explain(err))
					failed = err
				}
			}
			if failed != nil {
				return fmt.Errorf("some toggles failed")
			}
			return nil
		},
	}
}

func favoriteLabel(favorited bool) string {
	if favorited {
		return "favorited"
	}
	return "not favorited"
}
