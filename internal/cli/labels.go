package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/dealbook/store"
)

// withStore opens the label store around fn.
func (a *app) withStore(fn func(st *store.Store) error) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func parseID(s, what string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", what, s)
	}
	return n, nil
}

func newLabelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Describe magic numbers",
		Long: `Attach a human description to a magic number. Descriptions appear in
every report next to the magic.

Examples:
  dealbook label set 1001 "EURUSD trend H1"
  dealbook label list`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <magic> <description>",
		Short: "Set a magic's description",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			magic, err := parseID(args[0], "magic")
			if err != nil {
				return err
			}
			desc := strings.Join(args[1:], " ")
			return a.withStore(func(st *store.Store) error {
				if err := st.SetDescription(cmd.Context(), a.account(), magic, desc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %d: %s\n", magic, desc)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <magic>",
		Short: "Print a magic's description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			magic, err := parseID(args[0], "magic")
			if err != nil {
				return err
			}
			return a.withStore(func(st *store.Store) error {
				desc, err := st.Description(cmd.Context(), a.account(), magic)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), desc)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all descriptions of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *store.Store) error {
				all, err := st.Descriptions(cmd.Context(), a.account())
				if err != nil {
					return err
				}
				magics := make([]int64, 0, len(all))
				for m := range all {
					magics = append(magics, m)
				}
				sort.Slice(magics, func(i, j int) bool { return magics[i] < magics[j] })

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MAGIC\tDESCRIPTION")
				for _, m := range magics {
					fmt.Fprintf(tw, "%d\t%s\n", m, all[m])
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <magic>",
		Short: "Remove a magic's description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			magic, err := parseID(args[0], "magic")
			if err != nil {
				return err
			}
			return a.withStore(func(st *store.Store) error {
				if err := st.DeleteDescription(cmd.Context(), a.account(), magic); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted description of %d\n", magic)
				return nil
			})
		},
	})

	return cmd
}

func newGroupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage named groups of magic numbers",
		Long: `Groups roll several magics into one line of the grouped profit view.
A magic may belong to more than one group; it then counts in each.

Examples:
  dealbook group create scalpers
  dealbook group add 1 1001 1002
  dealbook view grouped`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return a.withStore(func(st *store.Store) error {
				id, err := st.CreateGroup(cmd.Context(), a.account(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Created group %d (%s)\n", id, name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "group id")
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			return a.withStore(func(st *store.Store) error {
				if err := st.RenameGroup(cmd.Context(), a.account(), id, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Renamed group %d to %s\n", id, name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a group and its assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "group id")
			if err != nil {
				return err
			}
			return a.withStore(func(st *store.Store) error {
				if err := st.DeleteGroup(cmd.Context(), a.account(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted group %d\n", id)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id> <magic>...",
		Short: "Add magics to a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.assign(cmd, args, (*store.Store).AddToGroup, "Added")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id> <magic>...",
		Short: "Remove magics from a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.assign(cmd, args, (*store.Store).RemoveFromGroup, "Removed")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List groups with their magics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *store.Store) error {
				groups, err := st.Groups(cmd.Context(), a.account())
				if err != nil {
					return err
				}
				ids := make([]int64, 0, len(groups))
				for id := range groups {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tMAGICS")
				for _, id := range ids {
					g := groups[id]
					magics := make([]string, 0, len(g.Magics))
					for _, m := range g.Magics {
						magics = append(magics, strconv.FormatInt(m, 10))
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", id, g.Name, strings.Join(magics, ","))
				}
				return tw.Flush()
			})
		},
	})

	return cmd
}

type assignFunc func(st *store.Store, ctx context.Context, account string, id, magic int64) error

func (a *app) assign(cmd *cobra.Command, args []string, fn assignFunc, verb string) error {
	id, err := parseID(args[0], "group id")
	if err != nil {
		return err
	}
	magics := make([]int64, 0, len(args)-1)
	for _, s := range args[1:] {
		m, err := parseID(s, "magic")
		if err != nil {
			return err
		}
		magics = append(magics, m)
	}

	return a.withStore(func(st *store.Store) error {
		for _, m := range magics {
			if err := fn(st, cmd.Context(), a.account(), id, m); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %d magic(s), group %d\n", verb, len(magics), id)
		return nil
	})
}

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view [individual|grouped]",
		Short: "Show or set the default profit view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *store.Store) error {
				if len(args) == 1 {
					mode, err := store.ParseViewMode(args[0])
					if err != nil {
						return err
					}
					if err := st.SetViewMode(cmd.Context(), a.account(), mode); err != nil {
						return err
					}
				}
				mode, err := st.ViewMode(cmd.Context(), a.account())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "View: %s\n", mode)
				return nil
			})
		},
	}
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show or edit account settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print account settings and store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *store.Store) error {
				s, err := st.AccountSettings(cmd.Context(), a.account())
				if err != nil {
					return err
				}
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Account:       %s\n", a.account())
				fmt.Fprintf(w, "Title:         %s\n", s.Title)
				fmt.Fprintf(w, "Leverage:      %d\n", s.Leverage)
				fmt.Fprintf(w, "Server:        %s\n", s.Server)
				fmt.Fprintf(w, "Store:         %s\n", stats.Path)
				fmt.Fprintf(w, "Descriptions:  %d (%d accounts)\n", stats.TotalDescriptions, stats.UniqueAccounts)
				fmt.Fprintf(w, "Groups:        %d\n", stats.Groups)
				return nil
			})
		},
	})

	var (
		title    string
		leverage int
		server   string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update account settings; omitted flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u store.AccountUpdate
			if cmd.Flags().Changed("title") {
				u.Title = &title
			}
			if cmd.Flags().Changed("leverage") {
				u.Leverage = &leverage
			}
			if cmd.Flags().Changed("server") {
				u.Server = &server
			}
			return a.withStore(func(st *store.Store) error {
				if err := st.UpdateAccountSettings(cmd.Context(), a.account(), u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated account %s\n", a.account())
				return nil
			})
		},
	}
	set.Flags().StringVar(&title, "title", "", "Display title")
	set.Flags().IntVar(&leverage, "leverage", 0, "Account leverage")
	set.Flags().StringVar(&server, "server", "", "Broker server name")
	cmd.AddCommand(set)

	return cmd
}
