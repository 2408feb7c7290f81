package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardCountsEndpoint = "/users/dashboard-counts/"
	teamConnectEndpoint     = "/users/team-connect/"

	noIndustryNotice = "no industry assigned to this account"
)

// Counts are the per-industry record totals.
type Counts struct {
	Bookings   int64 `json:"bookings_count" yaml:"bookings"`
	Vendors    int64 `json:"vendors_count" yaml:"vendors"`
	StockItems int64 `json:"stock_items_count" yaml:"stock_items"`
	Orders     int64 `json:"orders_count" yaml:"orders"`
}

// Team is the industry's users grouped by role.
type Team struct {
	Owners        []models.Profile `json:"owners" yaml:"owners"`
	Managers      []models.Profile `json:"managers" yaml:"managers"`
	FieldOfficers []models.Profile `json:"field_officers" yaml:"field_officers"`
	Farmers       []models.Profile `json:"farmers" yaml:"farmers"`
}

type teamResponse struct {
	UsersByRole Team `json:"users_by_role"`
}

// Dashboard is the landing view. Counts and team data degrade
// independently: a failure is recorded in the matching *Error field
// instead of failing the whole dashboard.
type Dashboard struct {
	Profile    *models.Profile
	Counts     *Counts
	CountsErr  string
	Team       *Team
	TeamErr    string
	IndustryID int64
}

// Dashboard loads counts and team data for the user's industry
// concurrently. Only a lost session is returned as an error.
func (s *Service) Dashboard(ctx context.Context, profile *models.Profile) (*Dashboard, error) {
	if profile == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	d := &Dashboard{Profile: profile, IndustryID: profile.IndustryID()}

	if d.IndustryID == 0 {
		d.CountsErr = noIndustryNotice
		d.TeamErr = noIndustryNotice

		return d, nil
	}

	query := "?industry_id=" + strconv.FormatInt(d.IndustryID, 10)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var counts Counts

		err := s.getJSON(gctx, dashboardCountsEndpoint+query, &counts)
		if err != nil {
			d.CountsErr = s.degrade("dashboard counts", err)
			return fatal(err)
		}

		d.Counts = &counts

		return nil
	})

	g.Go(func() error {
		var team teamResponse

		err := s.getJSON(gctx, teamConnectEndpoint+query, &team)
		if err != nil {
			d.TeamErr = s.degrade("team connect", err)
			return fatal(err)
		}

		d.Team = &team.UsersByRole

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *Service) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	body, err := s.api.Get(ctx, endpoint)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return fmt.Errorf("%w: empty response from %s", apperrors.ErrRequestFailed, endpoint)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", apperrors.ErrRequestFailed, endpoint, err)
	}

	return nil
}

func (s *Service) degrade(what string, err error) string {
	s.logger.Warn("dashboard section unavailable",
		slog.String("section", what),
		slog.String("error", err.Error()),
	)

	return "unavailable: " + err.Error()
}

// fatal keeps only the errors that end the session.
func fatal(err error) error {
	if errors.Is(err, apperrors.ErrSessionExpired) || errors.Is(err, apperrors.ErrNotAuthenticated) {
		return err
	}

	return nil
}

// RenderDashboard prints the dashboard.
func RenderDashboard(w io.Writer, d *Dashboard, format Format) error {
	if format == FormatYAML {
		return renderYAML(w, dashboardYAML(d))
	}

	p := d.Profile

	fmt.Fprintf(w, "Welcome, %s\n", p.DisplayName())

	if p.Industry != nil && p.Industry.Name != "" {
		fmt.Fprintf(w, "Industry: %s\n", p.Industry.Name)
	}

	if role := p.RoleName(); role != "" {
		fmt.Fprintf(w, "Role: %s\n", role)
	}

	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if d.Counts != nil {
		fmt.Fprintf(tw, "Bookings\t%d\n", d.Counts.Bookings)
		fmt.Fprintf(tw, "Vendors\t%d\n", d.Counts.Vendors)
		fmt.Fprintf(tw, "Stock items\t%d\n", d.Counts.StockItems)
		fmt.Fprintf(tw, "Orders\t%d\n", d.Counts.Orders)
	} else {
		fmt.Fprintf(tw, "Counts\t%s\n", d.CountsErr)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)

	if d.Team == nil {
		_, err := fmt.Fprintf(w, "Team: %s\n", d.TeamErr)
		return err
	}

	groups := []struct {
		title string
		users []models.Profile
	}{
		{"Owners", d.Team.Owners},
		{"Managers", d.Team.Managers},
		{"Field officers", d.Team.FieldOfficers},
		{"Farmers", d.Team.Farmers},
	}

	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", g.title, len(g.users))

		if len(g.users) == 0 {
			fmt.Fprintln(w, "  No users found for this role.")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, u := range g.users {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				cell(u.Handle()), cell(u.PhoneNumber), cell(u.Email), cell(u.RoleName()))
		}

		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func dashboardYAML(d *Dashboard) map[string]interface{} {
	out := map[string]interface{}{
		"user":        d.Profile.Handle(),
		"industry_id": d.IndustryID,
	}

	if d.Counts != nil {
		out["counts"] = d.Counts
	} else {
		out["counts_error"] = d.CountsErr
	}

	if d.Team != nil {
		team := map[string][]string{}
		for role, users := range map[string][]models.Profile{
			"owners":         d.Team.Owners,
			"managers":       d.Team.Managers,
			"field_officers": d.Team.FieldOfficers,
			"farmers":        d.Team.Farmers,
		} {
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, strings.TrimSpace(u.Handle()))
			}

			team[role] = names
		}

		out["team"] = team
	} else {
		out["team_error"] = d.TeamErr
	}

	return out
}
