// Package mcpserver registers MCP tools that expose farm records.
// It adapts the resources package to the MCP SDK's tool handler interface.
// All tools are read-only.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexjbarnes/farmdesk/internal/models"
	"github.com/alexjbarnes/farmdesk/internal/resources"
	"github.com/alexjbarnes/farmdesk/internal/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultListLimit caps farm_list output unless the caller asks for more.
const defaultListLimit = 50

// Session supplies the signed-in user. Implemented by session.Controller.
type Session interface {
	Profile() *models.Profile
	Resume(ctx context.Context) error
}

// RegisterTools adds all farm tools to the given MCP server.
func RegisterTools(server *mcp.Server, svc *resources.Service, sess Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "farm_whoami",
		Description: "Show the signed-in user's profile: username, email, role and industry.",
	}, whoamiHandler(sess))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "farm_list",
		Description: "List records of one kind (bookings, vendors, orders, stock). Optional case-insensitive query filters on the displayed columns. Returns at most 50 records unless limit is set.",
	}, listHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "farm_get",
		Description: "Fetch a single record by kind and numeric id, with every field the backend returns.",
	}, getHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "farm_dashboard",
		Description: "Record counts and team members by role for the signed-in user's industry. Sections that fail to load are reported in counts_error or team_error.",
	}, dashboardHandler(svc, sess))
}

// --- Input types ---
// The MCP SDK infers JSON schema from these struct types via jsonschema tags.

// WhoamiInput has no parameters.
type WhoamiInput struct{}

// ListInput holds parameters for farm_list.
type ListInput struct {
	Resource string `json:"resource" jsonschema:"required,one of bookings, vendors, orders, stock"`
	Query    string `json:"query,omitempty" jsonschema:"case-insensitive substring to filter on"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of records, defaults to 50"`
}

// GetInput holds parameters for farm_get.
type GetInput struct {
	Resource string `json:"resource" jsonschema:"required,one of bookings, vendors, orders, stock"`
	ID       string `json:"id" jsonschema:"required,numeric record id"`
}

// DashboardInput has no parameters.
type DashboardInput struct{}

// --- Output types ---

// ListResult is returned by farm_list.
type ListResult struct {
	Resource  string                   `json:"resource"`
	Total     int                      `json:"total"`
	Count     int                      `json:"count"`
	Truncated bool                     `json:"truncated,omitempty"`
	Records   []map[string]interface{} `json:"records"`
}

// GetResult is returned by farm_get.
type GetResult struct {
	Resource string                 `json:"resource"`
	Record   map[string]interface{} `json:"record"`
}

// TeamMember is one row of the team section.
type TeamMember struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// DashboardResult is returned by farm_dashboard.
type DashboardResult struct {
	User        string                  `json:"user"`
	IndustryID  int64                   `json:"industry_id,omitempty"`
	Counts      *resources.Counts       `json:"counts,omitempty"`
	CountsError string                  `json:"counts_error,omitempty"`
	Team        map[string][]TeamMember `json:"team,omitempty"`
	TeamError   string                  `json:"team_error,omitempty"`
}

// --- Handlers ---

func whoamiHandler(sess Session) mcp.ToolHandlerFor[WhoamiInput, *models.Profile] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ WhoamiInput) (*mcp.CallToolResult, *models.Profile, error) {
		p, err := currentProfile(ctx, sess)
		if err != nil {
			return nil, nil, err
		}
		return textResult(p), p, nil
	}
}

func listHandler(svc *resources.Service) mcp.ToolHandlerFor[ListInput, *ListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *ListResult, error) {
		kind, err := resources.Lookup(input.Resource)
		if err != nil {
			return nil, nil, err
		}

		records, err := svc.List(ctx, kind)
		if err != nil {
			return nil, nil, toolError(err)
		}

		records = resources.Search(kind, records, input.Query)

		limit := input.Limit
		if limit <= 0 {
			limit = defaultListLimit
		}

		result := &ListResult{Resource: kind.Name, Total: len(records)}
		if len(records) > limit {
			records = records[:limit]
			result.Truncated = true
		}

		result.Records = make([]map[string]interface{}, 0, len(records))
		for _, r := range records {
			m, err := asMap(r)
			if err != nil {
				return nil, nil, err
			}
			result.Records = append(result.Records, m)
		}
		result.Count = len(result.Records)

		return textResult(result), result, nil
	}
}

func getHandler(svc *resources.Service) mcp.ToolHandlerFor[GetInput, *GetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, *GetResult, error) {
		kind, err := resources.Lookup(input.Resource)
		if err != nil {
			return nil, nil, err
		}

		rec, err := svc.Get(ctx, kind, input.ID)
		if err != nil {
			return nil, nil, toolError(err)
		}

		m, err := asMap(rec)
		if err != nil {
			return nil, nil, err
		}

		result := &GetResult{Resource: kind.Name, Record: m}
		return textResult(result), result, nil
	}
}

func dashboardHandler(svc *resources.Service, sess Session) mcp.ToolHandlerFor[DashboardInput, *DashboardResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ DashboardInput) (*mcp.CallToolResult, *DashboardResult, error) {
		p, err := currentProfile(ctx, sess)
		if err != nil {
			return nil, nil, err
		}

		d, err := svc.Dashboard(ctx, p)
		if err != nil {
			return nil, nil, toolError(err)
		}

		result := &DashboardResult{
			User:        p.Handle(),
			IndustryID:  d.IndustryID,
			Counts:      d.Counts,
			CountsError: d.CountsErr,
			TeamError:   d.TeamErr,
		}

		if d.Team != nil {
			result.Team = map[string][]TeamMember{
				"owners":         members(d.Team.Owners),
				"managers":       members(d.Team.Managers),
				"field_officers": members(d.Team.FieldOfficers),
				"farmers":        members(d.Team.Farmers),
			}
		}

		return textResult(result), result, nil
	}
}

// currentProfile returns the signed-in profile, resuming the stored
// session on first use.
func currentProfile(ctx context.Context, sess Session) (*models.Profile, error) {
	if p := sess.Profile(); p != nil {
		return p, nil
	}

	if err := sess.Resume(ctx); err != nil {
		return nil, toolError(err)
	}

	p := sess.Profile()
	if p == nil {
		return nil, errors.New("no profile available")
	}

	return p, nil
}

func members(users []models.Profile) []TeamMember {
	out := make([]TeamMember, 0, len(users))
	for _, u := range users {
		out = append(out, TeamMember{
			Username: u.Handle(),
			Email:    u.Email,
			Phone:    u.PhoneNumber,
			Role:     u.RoleName(),
		})
	}
	return out
}

// toolError keeps the operator-facing message and the original chain.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", session.UserMessage(err), err)
}

func asMap(r resources.Record) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(r.Raw(), &m); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return m, nil
}

// textResult builds a CallToolResult with JSON text content from any value.
// This provides the unstructured content alongside the structured output
// that the SDK populates automatically.
func textResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error marshaling result: %v", err)}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
