package scoring

import "github.com/govscope/govscope/pkg/graph"

// UserSource yields users from one place in the graph. Reconciliation runs
// the sources in declared order and keeps the first sighting of each id, so
// the slice itself is the priority chain rather than buried control flow.
type UserSource struct {
	Name  string
	Users func(snap *graph.Snapshot) []graph.User
}

// DefaultUserSources is the identity fallback chain: primary API identity,
// then the bulk team listing, then role membership, group membership, and
// finally raw workspace member lists.
func DefaultUserSources() []UserSource {
	return []UserSource{
		{
			Name: "api_identity",
			Users: func(snap *graph.Snapshot) []graph.User {
				if snap.Identity.UserID == "" {
					return nil
				}
				return []graph.User{{
					ID:    snap.Identity.UserID,
					Email: snap.Identity.Email,
					Name:  snap.Identity.Name,
				}}
			},
		},
		{
			Name: "team_listing",
			Users: func(snap *graph.Snapshot) []graph.User {
				return snap.Users
			},
		},
		{
			Name: "workspace_roles",
			Users: func(snap *graph.Snapshot) []graph.User {
				var users []graph.User
				for _, ws := range snap.Workspaces {
					for _, role := range ws.Roles {
						for _, id := range role.UserIDs {
							users = append(users, graph.User{ID: id})
						}
					}
				}
				return users
			},
		},
		{
			Name: "group_membership",
			Users: func(snap *graph.Snapshot) []graph.User {
				var users []graph.User
				for _, g := range snap.Groups {
					for _, id := range g.Members {
						users = append(users, graph.User{ID: id})
					}
				}
				return users
			},
		},
		{
			Name: "workspace_members",
			Users: func(snap *graph.Snapshot) []graph.User {
				var users []graph.User
				for _, ws := range snap.Workspaces {
					for _, id := range ws.MemberIDs {
						users = append(users, graph.User{ID: id})
					}
				}
				return users
			},
		},
	}
}

// UserReport is the reconciled user inventory. Orphaned counts users that
// appear in no group's member list.
type UserReport struct {
	Users    []graph.User
	Total    int
	Orphaned int
}

// ReconcileUsers merges every source in priority order, deduplicating by id
// and tagging each user with the source that discovered it.
func ReconcileUsers(snap *graph.Snapshot, sources []UserSource) UserReport {
	seen := make(map[string]bool)
	var merged []graph.User

	for _, src := range sources {
		for _, u := range src.Users(snap) {
			if u.ID == "" || seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			u.Source = src.Name
			merged = append(merged, u)
		}
	}

	grouped := make(map[string]bool)
	for _, g := range snap.Groups {
		for _, id := range g.Members {
			grouped[id] = true
		}
	}

	report := UserReport{Users: merged, Total: len(merged)}
	for _, u := range merged {
		if !grouped[u.ID] {
			report.Orphaned++
		}
	}
	return report
}
