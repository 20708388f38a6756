/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tomoncle/storekit"
	"github.com/tomoncle/storekit/data"
	"github.com/tomoncle/storekit/types"
)

type demoService = storekit.Service[data.Demo, int64, data.DemoSearchFilters]

func newDemoCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create, read, update, delete and search demos",
	}
	cmd.AddCommand(
		newDemoCreateCmd(opts),
		newDemoGetCmd(opts),
		newDemoListCmd(opts),
		newDemoSearchCmd(opts),
		newDemoUpdateCmd(opts),
		newDemoDeleteCmd(opts),
		newDemoSeedCmd(opts),
	)
	return cmd
}

// withDemoService runs fn with a service over the demo repository of a
// fresh unit of work.
func withDemoService(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc demoService) error) error {
	return opts.withUnitOfWork(cmd, func(ctx context.Context, uow *data.UnitOfWork) error {
		return fn(ctx, storekit.NewService(uow.Demos()))
	})
}

func printDemo(w io.Writer, d *data.Demo) {
	fmt.Fprintf(w, "%d\t%s\n", d.DemoID, d.Name)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid demo id %q", s)
	}
	return id, nil
}

func newDemoCreateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDemoService(cmd, opts, func(ctx context.Context, svc demoService) error {
				demo := &data.Demo{Name: args[0]}
				if err := svc.Create(ctx, demo); err != nil {
					return err
				}
				printDemo(cmd.OutOrStdout(), demo)
				return nil
			})
		},
	}
}

func newDemoGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDemoService(cmd, opts, func(ctx context.Context, svc demoService) error {
				demo, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				printDemo(cmd.OutOrStdout(), demo)
				return nil
			})
		},
	}
}

func newDemoListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every demo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDemoService(cmd, opts, func(ctx context.Context, svc demoService) error {
				demos, err := svc.All(ctx)
				if err != nil {
					return err
				}
				for _, d := range demos {
					printDemo(cmd.OutOrStdout(), d)
				}
				return nil
			})
		},
	}
}

func newDemoSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		name       string
		orderBy    string
		descending bool
		page       int
		size       int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search demos by name with ordering and paging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.NewSearchRequest(data.DemoSearchFilters{Name: name}, page, size).WithOrder(orderBy, descending)
			return withDemoService(cmd, opts, func(ctx context.Context, svc demoService) error {
				resp, err := svc.Search(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, d := range resp.Items {
					printDemo(out, d)
				}
				fmt.Fprintf(out, "page %d/%d, %d total\n", resp.PageNumber, resp.TotalPages, resp.TotalCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "field to order by (DemoId, Name)")
	cmd.Flags().BoolVar(&descending, "desc", false, "order descending")
	cmd.Flags().IntVar(&page, "page", types.DefaultPageNumber, "page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", types.DefaultPageSize, "page size")
	return cmd
}

func newDemoUpdateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update ID NAME",
		Short: "Rename a demo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDemoService(cmd, opts, func(ctx context.Context, svc demoService) error {
				demo, err := svc.Update(ctx, id, func(d *data.Demo) { d.Name = args[1] })
				if err != nil {
					return err
				}
				printDemo(cmd.OutOrStdout(), demo)
				return nil
			})
		},
	}
}

func newDemoDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDemoService(cmd, opts, func(ctx context.Context, svc demoService) error {
				if err := svc.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
				return nil
			})
		},
	}
}

func newDemoSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed NAME...",
		Short: "Create several demos in one transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withUnitOfWork(cmd, func(ctx context.Context, uow *data.UnitOfWork) error {
				demos := make([]*data.Demo, len(args))
				err := uow.Do(ctx, func(ctx context.Context) error {
					for i, name := range args {
						demos[i] = &data.Demo{Name: name}
						if err := uow.Demos().Create(ctx, demos[i]); err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				for _, d := range demos {
					printDemo(cmd.OutOrStdout(), d)
				}
				return nil
			})
		},
	}
}
