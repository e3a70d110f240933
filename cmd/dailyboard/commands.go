package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/dailyboard/internal/model"
)

func newSearchCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <character>",
		Short: "Look up a character and save its roster as a new group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printGroup(cmd.OutOrStdout(), *g)
			return nil
		},
	}
}

func newRefreshCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [group-id]",
		Short: "Refresh one character group, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				g, err := a.svc.Refresh(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printGroup(out, *g)
				return nil
			}

			failures := a.svc.RefreshAll(cmd.Context())
			groups := a.svc.State().Groups()
			for _, g := range groups {
				if _, failed := failures[g.ID]; !failed {
					printGroup(out, g)
				}
			}
			if len(failures) > 0 {
				ids := make([]string, 0, len(failures))
				for id := range failures {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(out, "refresh %s failed: %v\n", id, failures[id])
				}
				return fmt.Errorf("%d of %d groups failed to refresh", len(failures), len(groups))
			}
			return nil
		},
	}
}

func newMarketCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "market <category-code>",
		Short: "List market prices for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("category code must be a number: %w", err)
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.client.MarketItems(cmd.Context(), code)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tGRADE\tRECENT\tYESTERDAY AVG")
			for _, it := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.1f\n", it.Name, it.Grade, it.RecentPrice, it.YDayAvgPrice)
			}
			return tw.Flush()
		},
	}
}

func newTokenCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the Lost Ark API token",
	}

	var validate bool
	setCmd := &cobra.Command{
		Use:   "set <token>",
		Short: "Store the API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.SetToken(cmd.Context(), args[0], validate); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token saved")
			return nil
		},
	}
	setCmd.Flags().BoolVar(&validate, "validate", true, "check the token against the API before saving")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.ClearToken(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether an API token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := a.svc.TokenStatus(cmd.Context())
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "token configured (%s backend)\n", cfg.TokenBackend)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no token configured")
			}
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd, statusCmd)
	return cmd
}

func printGroup(w io.Writer, g model.CharacterGroup) {
	fmt.Fprintf(w, "%s (%s)\n", g.RepresentativeName, g.ID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range g.Characters {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.CharacterName, c.ServerName, c.CharacterClassName, c.ItemAvgLevel)
	}
	tw.Flush()
}
