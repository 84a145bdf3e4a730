package commands

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/matches/pkg/engine"
)

// listFunc writes one listing of dir.
type listFunc func(ctx context.Context, eng *engine.Engine, dir string, w io.Writer) error

// listCommand holds the state shared by the groups and elements commands.
type listCommand struct {
	input  string
	output string
	list   listFunc
	name   string

	openOutput outputOpener
}

// NewGroupsCommand creates the groups command.
func NewGroupsCommand() *cobra.Command {
	return newListCommand("groups", "Print the clusters of every clusterset in a directory",
		func(ctx context.Context, eng *engine.Engine, dir string, w io.Writer) error {
			return eng.Groups(ctx, dir, w)
		})
}

// NewElementsCommand creates the elements command.
func NewElementsCommand() *cobra.Command {
	return newListCommand("elements", "Print the sorted element names found in a directory",
		func(ctx context.Context, eng *engine.Engine, dir string, w io.Writer) error {
			return eng.Elements(ctx, dir, w)
		})
}

func newListCommand(name, short string, list listFunc) *cobra.Command {
	lc := &listCommand{list: list, name: name, openOutput: createOutputFile}

	cmd := &cobra.Command{
		Use:   name + " [dir]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE:  lc.run,
	}

	cmd.Flags().StringVarP(&lc.input, "input", "i", "", "Input directory")
	cmd.Flags().StringVarP(&lc.output, "output", "o", "", "Write the listing to this file")

	return cmd
}

func (lc *listCommand) run(cmd *cobra.Command, args []string) error {
	dir, err := resolveDir(args, lc.input)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer sess.close()

	eng := engine.New(
		engine.WithLogger(sess.providers.Logger),
		engine.WithTracer(sess.providers.Tracer),
	)

	sess.progressf(cmd.ErrOrStderr(), "listing %s of %s", lc.name, dir)

	if lc.output == "" {
		return lc.list(cmd.Context(), eng, dir, cmd.OutOrStdout())
	}

	file, err := lc.openOutput(lc.output)
	if err != nil {
		return err
	}

	listErr := lc.list(cmd.Context(), eng, dir, file)
	closeErr := file.Close()

	return errors.Join(listErr, closeErr)
}
