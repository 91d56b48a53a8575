package violations

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/govscope/govscope/internal/utils"
	"github.com/govscope/govscope/pkg/graph"
	"github.com/govscope/govscope/pkg/scoring"
)

// Type is the fixed violation taxonomy.
type Type string

const (
	MissingDocumentation  Type = "missing_documentation"
	UntestedCollection    Type = "untested_collection"
	UnmonitoredAPI        Type = "unmonitored_api"
	MissingEnvironment    Type = "missing_environment"
	OutdatedSpecification Type = "outdated_specification"
	CollectionWithoutSpec Type = "collection_without_specification"
	OrphanedUser          Type = "orphaned_user"
)

// Violation is a single policy non-compliance, enriched with workspace and
// admin context so every record is renderable for remediation even when the
// upstream data is incomplete.
type Violation struct {
	Type          Type
	EntityID      string
	EntityName    string
	WorkspaceID   string
	WorkspaceName string
	Admin         graph.AdminContact
	Detail        string

	// Failing/Total back the per-collection count detail, zero elsewhere.
	Failing int
	Total   int
}

// Detector walks a snapshot and emits the typed violation set.
type Detector struct {
	strategies []scoring.FieldStrategy
	specMaxAge time.Duration
	log        *logrus.Logger
}

// DefaultSpecMaxAge is how stale a specification may get before it is
// flagged as outdated.
const DefaultSpecMaxAge = 90 * 24 * time.Hour

func NewDetector() *Detector {
	return &Detector{
		strategies: scoring.DefaultMonitorFieldStrategies(),
		specMaxAge: DefaultSpecMaxAge,
		log:        utils.Log,
	}
}

// Detect produces all violations for the snapshot. Order is deterministic:
// taxonomy order, then graph array order within each type.
func (d *Detector) Detect(snap *graph.Snapshot) []Violation {
	var out []Violation

	home := homeWorkspace(snap)
	admin := resolveAdmin(snap, home)

	enrich := func(v Violation) Violation {
		if home != nil {
			v.WorkspaceID = home.ID
			v.WorkspaceName = home.Name
		}
		v.Admin = admin
		return v
	}

	for _, col := range snap.Collections {
		total := graph.TotalEndpoints(col.Items)
		if total == 0 {
			continue
		}
		if documented := graph.DocumentedEndpoints(col.Items); documented < total {
			out = append(out, enrich(Violation{
				Type:       MissingDocumentation,
				EntityID:   col.UID,
				EntityName: col.Name,
				Failing:    total - documented,
				Total:      total,
				Detail:     fmt.Sprintf("%d of %d endpoints lack a description or example response", total-documented, total),
			}))
		}
	}

	for _, col := range snap.Collections {
		total := graph.TotalEndpoints(col.Items)
		if total == 0 {
			continue
		}
		if tested := graph.TestedEndpoints(col.Items); tested < total {
			out = append(out, enrich(Violation{
				Type:       UntestedCollection,
				EntityID:   col.UID,
				EntityName: col.Name,
				Failing:    total - tested,
				Total:      total,
				Detail:     fmt.Sprintf("%d of %d endpoints have no test script", total-tested, total),
			}))
		}
	}

	monitored, _ := scoring.MonitoredCollections(snap.Monitors, d.strategies)
	for _, col := range snap.Collections {
		if !monitored[col.UID] {
			out = append(out, enrich(Violation{
				Type:       UnmonitoredAPI,
				EntityID:   col.UID,
				EntityName: col.Name,
				Detail:     "no monitor is attached to this collection",
			}))
		}
	}

	if len(snap.Environments) == 0 {
		out = append(out, enrich(Violation{
			Type:   MissingEnvironment,
			Detail: "the team has no environments defined",
		}))
	}

	now := time.Now().UTC()
	for _, spec := range snap.Specifications {
		switch {
		case spec.UpdatedAt.IsZero():
			out = append(out, enrich(Violation{
				Type:       OutdatedSpecification,
				EntityID:   spec.ID,
				EntityName: spec.Name,
				Detail:     "specification has no recorded update time",
			}))
		case now.Sub(spec.UpdatedAt) > d.specMaxAge:
			out = append(out, enrich(Violation{
				Type:       OutdatedSpecification,
				EntityID:   spec.ID,
				EntityName: spec.Name,
				Detail:     fmt.Sprintf("specification not updated since %s", spec.UpdatedAt.Format("2006-01-02")),
			}))
		}
	}

	specced := make(map[string]bool)
	for _, spec := range snap.Specifications {
		for _, id := range spec.CollectionIDs {
			specced[id] = true
		}
	}
	for _, col := range snap.Collections {
		if !specced[col.UID] {
			out = append(out, enrich(Violation{
				Type:       CollectionWithoutSpec,
				EntityID:   col.UID,
				EntityName: col.Name,
				Detail:     "no specification references this collection",
			}))
		}
	}

	report := scoring.ReconcileUsers(snap, scoring.DefaultUserSources())
	grouped := make(map[string]bool)
	for _, g := range snap.Groups {
		for _, id := range g.Members {
			grouped[id] = true
		}
	}
	for _, u := range report.Users {
		if grouped[u.ID] {
			continue
		}
		name := u.Name
		if name == "" {
			name = u.ID
		}
		out = append(out, enrich(Violation{
			Type:       OrphanedUser,
			EntityID:   u.ID,
			EntityName: name,
			Detail:     "user belongs to no group",
		}))
	}

	d.log.WithFields(logrus.Fields{"violations": len(out)}).Debug("Violation detection complete")
	return out
}

// homeWorkspace picks the workspace used to enrich team-wide violations:
// the first team workspace, else the first workspace at all.
func homeWorkspace(snap *graph.Snapshot) *graph.Workspace {
	for i := range snap.Workspaces {
		if snap.Workspaces[i].Type == "team" {
			return &snap.Workspaces[i]
		}
	}
	if len(snap.Workspaces) > 0 {
		return &snap.Workspaces[0]
	}
	return nil
}

// resolveAdmin walks the fallback chain: an admin-named role first, then the
// workspace creator, then a generic placeholder so the record always renders.
func resolveAdmin(snap *graph.Snapshot, ws *graph.Workspace) graph.AdminContact {
	placeholder := graph.AdminContact{
		Name:  "Workspace Administrator",
		Email: "unknown",
	}
	if ws == nil {
		return placeholder
	}
	placeholder.WorkspaceID = ws.ID

	for _, role := range ws.Roles {
		if !strings.Contains(strings.ToLower(role.Name), "admin") || len(role.UserIDs) == 0 {
			continue
		}
		contact := graph.AdminContact{WorkspaceID: ws.ID, UserID: role.UserIDs[0]}
		if u, ok := lookupUser(snap, contact.UserID); ok {
			contact.Email = u.Email
			contact.Name = u.Name
		}
		if contact.Name == "" {
			contact.Name = "Workspace Administrator"
		}
		if contact.Email == "" {
			contact.Email = "unknown"
		}
		return contact
	}

	if ws.CreatedBy != "" {
		contact := graph.AdminContact{WorkspaceID: ws.ID, UserID: ws.CreatedBy}
		if u, ok := lookupUser(snap, ws.CreatedBy); ok {
			contact.Email = u.Email
			contact.Name = u.Name
		}
		if contact.Name == "" {
			contact.Name = "Workspace Administrator"
		}
		if contact.Email == "" {
			contact.Email = "unknown"
		}
		return contact
	}

	return placeholder
}

func lookupUser(snap *graph.Snapshot, id string) (graph.User, bool) {
	for _, u := range snap.Users {
		if u.ID == id {
			return u, true
		}
	}
	return graph.User{}, false
}
