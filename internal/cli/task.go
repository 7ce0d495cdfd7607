package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/engine/detail"
	"github.com/mesh-intelligence/backoffice/internal/render"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the tasks of a record",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <resource> <id> <title>",
		Short: "Add an open task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEntity(cmd, args[0], args[1], func(ctx context.Context, e *detail.Engine) (types.Entity, error) {
				return e.AddTask(ctx, args[2])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "done <resource> <id> <task-id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEntity(cmd, args[0], args[1], func(ctx context.Context, e *detail.Engine) (types.Entity, error) {
				return e.CompleteTask(ctx, args[2])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <resource> <id> <task-id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEntity(cmd, args[0], args[1], func(ctx context.Context, e *detail.Engine) (types.Entity, error) {
				if err := e.RemoveTask(ctx, args[2]); err != nil {
					return nil, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", args[2])
				return nil, nil
			})
		},
	})
	return cmd
}

func newCommentCmd(a *app) *cobra.Command {
	var document string
	add := &cobra.Command{
		Use:   "add <resource> <id> <text>",
		Short: "Add a comment to a record, or to one of its documents",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEntity(cmd, args[0], args[1], func(ctx context.Context, e *detail.Engine) (types.Entity, error) {
				if document != "" {
					if _, err := e.ActivateTab(ctx, types.TabDocuments); err != nil {
						return nil, err
					}
					return e.AddDocumentComment(ctx, document, args[2])
				}
				return e.AddComment(ctx, args[2])
			})
		},
	}
	add.Flags().StringVar(&document, "document", "", "comment on this document instead of the record")

	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Comment on a record",
	}
	cmd.AddCommand(add)
	return cmd
}

// withEntity opens a record for a sub-resource command and prints the item
// fn returns, if any.
func (a *app) withEntity(cmd *cobra.Command, key, id string, fn func(context.Context, *detail.Engine) (types.Entity, error)) error {
	cfg, err := a.resource(key)
	if err != nil {
		return err
	}
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close()
	e, res, err := a.openEntity(cmd.Context(), s, cfg, id)
	if err != nil {
		return err
	}
	if err := requireFound(cfg, id, res); err != nil {
		return err
	}
	item, err := fn(cmd.Context(), e)
	if err != nil {
		return userErrorIfLocal(err)
	}
	if item == nil {
		return nil
	}
	r := render.New(cmd.OutOrStdout())
	if a.jsonMode {
		return r.JSON(item)
	}
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	pairs := make([][2]string, len(keys))
	for i, k := range keys {
		pairs[i] = [2]string{k, render.Cell(item, k)}
	}
	return r.KV(pairs)
}

// userErrorIfLocal marks engine errors that never reached the gateway as
// user errors; gateway failures keep their own classification.
func userErrorIfLocal(err error) error {
	if _, ok := types.FailureOf(err); ok {
		return err
	}
	return userError(err)
}
