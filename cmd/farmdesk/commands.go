package main

import (
	"context"
	"flag"
	"fmt"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/models"
	"github.com/alexjbarnes/farmdesk/internal/resources"
)

// profile returns the signed-in user, resuming the stored session first.
func (a *app) profile(ctx context.Context) (*models.Profile, error) {
	if p := a.ctrl.Profile(); p != nil {
		return p, nil
	}

	if err := a.ctrl.Resume(ctx); err != nil {
		return nil, err
	}

	return a.ctrl.Profile(), nil
}

func (a *app) whoami(ctx context.Context) error {
	p, err := a.profile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Username: %s\n", p.Handle())
	fmt.Fprintf(a.out, "Name:     %s\n", p.DisplayName())
	fmt.Fprintf(a.out, "Email:    %s\n", p.Email)

	if role := p.RoleName(); role != "" {
		fmt.Fprintf(a.out, "Role:     %s\n", role)
	}

	if p.Industry != nil {
		fmt.Fprintf(a.out, "Industry: %s (%d)\n", p.Industry.Name, p.Industry.ID)
	}

	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	p, err := a.profile(ctx)
	if err != nil {
		return err
	}

	d, err := a.svc.Dashboard(ctx, p)
	if err != nil {
		return err
	}

	return resources.RenderDashboard(a.out, d, a.format)
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	query := fs.String("q", "", "only show records containing this text (case-insensitive)")
	fs.StringVar(query, "search", "", "alias for -q")

	kindName, rest := splitKind(args)
	if err := fs.Parse(rest); err != nil {
		return err
	}

	if kindName == "" {
		kindName = fs.Arg(0)
	}

	k, err := resources.Lookup(kindName)
	if err != nil {
		return err
	}

	records, err := a.svc.List(ctx, k)
	if err != nil {
		return err
	}

	return resources.RenderList(a.out, k, resources.Search(k, records, *query), a.format)
}

func (a *app) get(ctx context.Context, args []string) error {
	k, id, _, err := kindAndID(args)
	if err != nil {
		return err
	}

	rec, err := a.svc.Get(ctx, k, id)
	if err != nil {
		return err
	}

	return resources.RenderRecord(a.out, rec, a.format)
}

func (a *app) create(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: farmdesk create <kind> key=value ...", apperrors.ErrValidation)
	}

	k, err := resources.Lookup(args[0])
	if err != nil {
		return err
	}

	fields, err := resources.ParseFields(args[1:])
	if err != nil {
		return err
	}

	rec, err := a.svc.Create(ctx, k, fields)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created %s %s.\n", k.Singular, rec.ID())

	return resources.RenderRecord(a.out, rec, a.format)
}

func (a *app) update(ctx context.Context, args []string) error {
	k, id, rest, err := kindAndID(args)
	if err != nil {
		return err
	}

	fields, err := resources.ParseFields(rest)
	if err != nil {
		return err
	}

	change, err := a.svc.Update(ctx, k, id, fields)
	if err != nil {
		return err
	}

	if !change.Changed() {
		fmt.Fprintf(a.out, "No changes to %s %s.\n", k.Singular, id)
		return nil
	}

	fmt.Fprintf(a.out, "Updated %s %s:\n", k.Singular, id)
	fmt.Fprint(a.out, resources.Diff(change.Before, change.After))

	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	k, id, _, err := kindAndID(args)
	if err != nil {
		return err
	}

	if err := a.svc.Delete(ctx, k, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Deleted %s %s.\n", k.Singular, id)

	return nil
}

// splitKind takes a leading positional kind off args so flags may
// follow it.
func splitKind(args []string) (string, []string) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		return args[0], args[1:]
	}

	return "", args
}

// kindAndID parses "<kind> <id> [rest...]".
func kindAndID(args []string) (*resources.Kind, string, []string, error) {
	if len(args) < 2 {
		return nil, "", nil, fmt.Errorf("%w: expected <kind> <id>", apperrors.ErrValidation)
	}

	k, err := resources.Lookup(args[0])
	if err != nil {
		return nil, "", nil, err
	}

	return k, args[1], args[2:], nil
}
