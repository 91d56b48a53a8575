package graph

import (
	"time"

	"github.com/tidwall/gjson"
)

// The platform returns deeply nested, variably-shaped JSON; everything here
// extracts with gjson path queries rather than struct unmarshalling so that
// absent or reshaped fields degrade to zero values instead of errors.

func ParseIdentity(body string) Identity {
	return Identity{
		UserID: gjson.Get(body, "user.id").String(),
		Email:  gjson.Get(body, "user.email").String(),
		Name:   gjson.Get(body, "user.fullName").String(),
		TeamID: gjson.Get(body, "user.teamId").String(),
	}
}

func ParseWorkspaces(body string) []Workspace {
	var out []Workspace
	gjson.Get(body, "workspaces").ForEach(func(_, w gjson.Result) bool {
		out = append(out, Workspace{
			ID:         w.Get("id").String(),
			Name:       w.Get("name").String(),
			Type:       w.Get("type").String(),
			Visibility: w.Get("visibility").String(),
		})
		return true
	})
	return out
}

// ParseWorkspaceDetail fills in the fields only present on the detail
// endpoint: creator and member ids.
func ParseWorkspaceDetail(body string, ws *Workspace) {
	detail := gjson.Get(body, "workspace")
	if name := detail.Get("name").String(); name != "" {
		ws.Name = name
	}
	ws.CreatedBy = detail.Get("createdBy").String()
	detail.Get("users").ForEach(func(_, u gjson.Result) bool {
		ws.MemberIDs = append(ws.MemberIDs, u.String())
		return true
	})
}

func ParseWorkspaceTags(body string) []string {
	var tags []string
	gjson.Get(body, "tags").ForEach(func(_, t gjson.Result) bool {
		tags = append(tags, t.Get("slug").String())
		return true
	})
	return tags
}

func ParseWorkspaceRoles(body, workspaceID string) []Role {
	var roles []Role
	gjson.Get(body, "roles").ForEach(func(_, r gjson.Result) bool {
		role := Role{
			Name:        r.Get("name").String(),
			WorkspaceID: workspaceID,
		}
		r.Get("users").ForEach(func(_, u gjson.Result) bool {
			role.UserIDs = append(role.UserIDs, u.String())
			return true
		})
		roles = append(roles, role)
		return true
	})
	return roles
}

func ParseCollections(body string) []Collection {
	var out []Collection
	gjson.Get(body, "collections").ForEach(func(_, c gjson.Result) bool {
		out = append(out, Collection{
			UID:     c.Get("uid").String(),
			Name:    c.Get("name").String(),
			OwnerID: c.Get("owner").String(),
		})
		return true
	})
	return out
}

// ParseCollectionItems builds the endpoint/folder tree from a collection
// detail response.
func ParseCollectionItems(body string) []Item {
	return parseItems(gjson.Get(body, "collection.item"))
}

func parseItems(res gjson.Result) []Item {
	var items []Item
	res.ForEach(func(_, it gjson.Result) bool {
		// A node with a child item list is a folder, anything with a request
		// is an endpoint. The two are mutually exclusive on the wire.
		if children := it.Get("item"); children.Exists() {
			items = append(items, Item{
				Kind:     KindFolder,
				Name:     it.Get("name").String(),
				Children: parseItems(children),
			})
			return true
		}
		if !it.Get("request").Exists() {
			return true
		}
		items = append(items, parseEndpoint(it))
		return true
	})
	return items
}

func parseEndpoint(it gjson.Result) Item {
	ep := Item{
		Kind:        KindEndpoint,
		Name:        it.Get("name").String(),
		Description: it.Get("request.description").String(),
		Request: &Request{
			Method: it.Get("request.method").String(),
			URL:    it.Get("request.url.raw").String(),
		},
	}
	it.Get("response").ForEach(func(_, r gjson.Result) bool {
		ep.Responses = append(ep.Responses, Response{
			Name: r.Get("name").String(),
			Code: int(r.Get("code").Int()),
		})
		return true
	})
	it.Get("event").ForEach(func(_, e gjson.Result) bool {
		ev := Event{Listen: e.Get("listen").String()}
		e.Get("script.exec").ForEach(func(_, line gjson.Result) bool {
			ev.Script = append(ev.Script, line.String())
			return true
		})
		ep.Events = append(ep.Events, ev)
		return true
	})
	return ep
}

func ParseForks(body string) []Fork {
	var forks []Fork
	gjson.Get(body, "data").ForEach(func(_, f gjson.Result) bool {
		forks = append(forks, Fork{
			ID:        f.Get("id").String(),
			Label:     f.Get("label").String(),
			CreatedAt: f.Get("createdAt").String(),
		})
		return true
	})
	return forks
}

func ParseEnvironments(body string) []Environment {
	var out []Environment
	gjson.Get(body, "environments").ForEach(func(_, e gjson.Result) bool {
		out = append(out, Environment{
			ID:   e.Get("id").String(),
			Name: e.Get("name").String(),
		})
		return true
	})
	return out
}

func ParseSpecifications(body string) []Specification {
	var out []Specification
	gjson.Get(body, "specs").ForEach(func(_, s gjson.Result) bool {
		spec := Specification{
			ID:   s.Get("id").String(),
			Name: s.Get("name").String(),
		}
		if ts := s.Get("updatedAt").String(); ts != "" {
			if at, err := time.Parse(time.RFC3339, ts); err == nil {
				spec.UpdatedAt = at
			}
		}
		s.Get("collections").ForEach(func(_, c gjson.Result) bool {
			spec.CollectionIDs = append(spec.CollectionIDs, c.Get("id").String())
			return true
		})
		out = append(out, spec)
		return true
	})
	return out
}

func ParseGroups(body string) []UserGroup {
	var out []UserGroup
	gjson.Get(body, "groups").ForEach(func(_, g gjson.Result) bool {
		group := UserGroup{
			ID:   g.Get("id").String(),
			Name: g.Get("name").String(),
		}
		g.Get("members").ForEach(func(_, m gjson.Result) bool {
			group.Members = append(group.Members, m.String())
			return true
		})
		out = append(out, group)
		return true
	})
	return out
}

func ParseUsers(body string) []User {
	var out []User
	gjson.Get(body, "users").ForEach(func(_, u gjson.Result) bool {
		out = append(out, User{
			ID:    u.Get("id").String(),
			Email: u.Get("email").String(),
			Name:  u.Get("name").String(),
		})
		return true
	})
	return out
}

func ParseMocks(body string) []Mock {
	var out []Mock
	gjson.Get(body, "mocks").ForEach(func(_, m gjson.Result) bool {
		out = append(out, Mock{
			ID:   m.Get("id").String(),
			Name: m.Get("name").String(),
			Raw:  m.Raw,
		})
		return true
	})
	return out
}

func ParseMonitors(body string) []Monitor {
	var out []Monitor
	gjson.Get(body, "monitors").ForEach(func(_, m gjson.Result) bool {
		out = append(out, Monitor{
			ID:   m.Get("id").String(),
			Name: m.Get("name").String(),
			Raw:  m.Raw,
		})
		return true
	})
	return out
}

func ParsePrivateAPIs(body string) []PrivateAPI {
	var out []PrivateAPI
	gjson.Get(body, "apis").ForEach(func(_, a gjson.Result) bool {
		out = append(out, PrivateAPI{
			ID:   a.Get("id").String(),
			Name: a.Get("name").String(),
		})
		return true
	})
	return out
}
