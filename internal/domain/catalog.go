package domain

import "fmt"

// LeaveKind marks projects that record time off instead of work.
type LeaveKind string

const (
	LeaveNone   LeaveKind = "none"
	LeavePaid   LeaveKind = "paid"
	LeaveUnpaid LeaveKind = "unpaid"
)

// Project is something time is booked against.
type Project struct {
	ID       int64
	Code     string
	Name     string
	Billable bool
	Leave    LeaveKind
	// Activities lists the activity IDs booked against the project; empty allows any
	Activities []int64
}

// IsLeave returns true for paid and unpaid leave projects.
func (p Project) IsLeave() bool {
	return p.Leave == LeavePaid || p.Leave == LeaveUnpaid
}

// Activity describes the kind of work done within a project.
type Activity struct {
	ID       int64
	Code     string
	Name     string
	Billable bool
}

// Catalog resolves project and activity references carried by entries.
type Catalog struct {
	projects   map[int64]Project
	activities map[int64]Activity
}

// NewCatalog indexes the given projects and activities by ID.
func NewCatalog(projects []Project, activities []Activity) *Catalog {
	c := &Catalog{
		projects:   make(map[int64]Project, len(projects)),
		activities: make(map[int64]Activity, len(activities)),
	}
	for _, p := range projects {
		c.projects[p.ID] = p
	}
	for _, a := range activities {
		c.activities[a.ID] = a
	}
	return c
}

// Project looks up a project by ID.
func (c *Catalog) Project(id int64) (Project, bool) {
	p, ok := c.projects[id]
	return p, ok
}

// Activity looks up an activity by ID.
func (c *Catalog) Activity(id int64) (Activity, bool) {
	a, ok := c.activities[id]
	return a, ok
}

// ActivityAllowed reports whether the project accepts the activity.
// Unknown projects accept nothing; unrestricted projects accept everything.
func (c *Catalog) ActivityAllowed(projectID, activityID int64) bool {
	p, ok := c.projects[projectID]
	if !ok {
		return false
	}
	if len(p.Activities) == 0 {
		return true
	}
	for _, id := range p.Activities {
		if id == activityID {
			return true
		}
	}
	return false
}

// AllowedActivityNames returns the names of the project's allowed activities,
// or nil when the project accepts any activity.
func (c *Catalog) AllowedActivityNames(projectID int64) []string {
	p, ok := c.projects[projectID]
	if !ok || len(p.Activities) == 0 {
		return nil
	}
	names := make([]string, len(p.Activities))
	for i, id := range p.Activities {
		names[i] = c.ActivityName(id)
	}
	return names
}

// ProjectName returns the project's display name, or a placeholder for unknown IDs.
func (c *Catalog) ProjectName(id int64) string {
	if p, ok := c.projects[id]; ok {
		return p.Name
	}
	return fmt.Sprintf("project #%d", id)
}

// ActivityName returns the activity's display name.
func (c *Catalog) ActivityName(id int64) string {
	if id == 0 {
		return "no activity"
	}
	if a, ok := c.activities[id]; ok {
		return a.Name
	}
	return fmt.Sprintf("activity #%d", id)
}

// IsBillable requires both the activity and the project to be billable.
func (c *Catalog) IsBillable(e *ClockEntry) bool {
	p, ok := c.projects[e.ProjectID]
	if !ok || !p.Billable {
		return false
	}
	a, ok := c.activities[e.ActivityID]
	return ok && a.Billable
}

// LeaveKind returns the leave kind of the entry's project.
func (c *Catalog) LeaveKind(e *ClockEntry) LeaveKind {
	if p, ok := c.projects[e.ProjectID]; ok && p.Leave != "" {
		return p.Leave
	}
	return LeaveNone
}
