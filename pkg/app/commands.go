package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"glowlink/pkg/catalog"
	"glowlink/pkg/export"
	"glowlink/pkg/settings"
)

func (c *cli) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored orders to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.close()

			orders, err := st.orders.List(ctx)
			if err != nil {
				return fmt.Errorf("unable to list orders: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Orders(f, orders); err != nil {
				f.Close()
				return fmt.Errorf("unable to write workbook: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			c.logger.Info("orders exported", zap.Int("orders", len(orders)), zap.String("path", out))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d orders to %s\n", len(orders), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "orders.xlsx", "Destination file")
	return cmd
}

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the product and service catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list [product|service]",
		Short: "List catalog items in display order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind catalog.Kind
			if len(args) == 1 {
				kind = catalog.Kind(args[0])
				if !kind.Valid() {
					return fmt.Errorf("unknown catalog kind %q", args[0])
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			st, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.close()

			items, err := st.catalog.List(ctx, kind)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tNAME\tPRICE\tDURATION")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Kind, item.Name, catalog.FormatPrice(item.PriceCents), item.Duration)
			}
			return w.Flush()
		},
	})
	return cmd
}

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage creator settings stored in redis",
	}

	var methods settings.ContactMethods
	contact := &cobra.Command{
		Use:   "contact",
		Short: "Show or replace the contact methods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.cfg.Redis.Enabled {
				return errors.New("settings are read from the config file; enable redis to manage them")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			client, err := settings.NewRedisClient(ctx, c.cfg.RedisSettings())
			if err != nil {
				return err
			}
			defer client.Close()
			store := settings.NewStore(client)

			flags := cmd.Flags()
			if flags.Changed("whatsapp") || flags.Changed("instagram") || flags.Changed("other") {
				if err := store.SaveContactMethods(ctx, methods); err != nil {
					return err
				}
				c.logger.Info("contact methods saved")
			}
			current, err := store.ContactMethods(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "whatsapp: %s\ninstagram: %s\nother: %s\n", current.WhatsApp, current.Instagram, current.Other)
			return err
		},
	}
	contact.Flags().StringVar(&methods.WhatsApp, "whatsapp", "", "WhatsApp number")
	contact.Flags().StringVar(&methods.Instagram, "instagram", "", "Instagram handle")
	contact.Flags().StringVar(&methods.Other, "other", "", "Any other contact line")
	cmd.AddCommand(contact)
	return cmd
}
