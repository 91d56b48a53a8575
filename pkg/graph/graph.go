package graph

import "time"

// Snapshot is the full entity graph assembled by one harvest cycle. It is
// built once, read by scoring and violation detection, then discarded; the
// storage layer is the durable record.
type Snapshot struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Identity       Identity
	Workspaces     []Workspace
	Collections    []Collection
	Environments   []Environment
	Specifications []Specification
	Groups         []UserGroup
	Users          []User
	Mocks          []Mock
	Monitors       []Monitor
	PrivateAPIs    []PrivateAPI

	Telemetry Telemetry
}

// Telemetry carries timing and count data about the harvest itself.
type Telemetry struct {
	Requests            int64
	Duration            time.Duration
	WorkspacesEnriched  int
	CollectionsEnriched int
	PartialFailures     int
}

// Identity is the authenticated principal the harvest runs as.
type Identity struct {
	UserID string
	Email  string
	Name   string
	TeamID string
}

type Workspace struct {
	ID         string
	Name       string
	Type       string // team, private or personal
	Visibility string
	CreatedBy  string
	Tags       []string
	Roles      []Role
	MemberIDs  []string
}

// Role is a named permission grant scoped to a workspace.
type Role struct {
	Name        string
	WorkspaceID string
	UserIDs     []string
}

type Collection struct {
	UID     string
	Name    string
	OwnerID string
	Items   []Item
	Forks   []Fork
}

type Fork struct {
	ID        string
	Label     string
	CreatedAt string
}

// ItemKind distinguishes the two variants of a collection tree node.
type ItemKind int

const (
	KindEndpoint ItemKind = iota
	KindFolder
)

// Item is a tagged variant: either an endpoint definition or a folder of
// child items, never both.
type Item struct {
	Kind ItemKind
	Name string

	// Endpoint fields.
	Description string
	Request     *Request
	Responses   []Response
	Events      []Event

	// Folder fields.
	Children []Item
}

type Request struct {
	Method string
	URL    string
}

// Response is a saved example response attached to an endpoint.
type Response struct {
	Name string
	Code int
}

// Event is a script hook on an endpoint; Listen is "test" or "prerequest".
type Event struct {
	Listen string
	Script []string
}

type Environment struct {
	ID   string
	Name string
}

type Specification struct {
	ID            string
	Name          string
	CollectionIDs []string
	UpdatedAt     time.Time
}

type User struct {
	ID    string
	Email string
	Name  string

	// Source records which reconciliation provider discovered the user.
	Source string
}

type UserGroup struct {
	ID      string
	Name    string
	Members []string
}

// Mock and Monitor keep the raw record JSON because the name of their
// collection-correlation field varies across platform versions; the scoring
// engine probes candidates against Raw.
type Mock struct {
	ID   string
	Name string
	Raw  string
}

type Monitor struct {
	ID   string
	Name string
	Raw  string
}

type PrivateAPI struct {
	ID   string
	Name string
}

// AdminContact is derived from roles or workspace metadata, never fetched
// directly. Used to address violation remediation.
type AdminContact struct {
	WorkspaceID string
	UserID      string
	Email       string
	Name        string
}
