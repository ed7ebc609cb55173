package domain

import (
	"time"

	"timesheet/internal/repository"
)

// EntryMapper handles conversion between domain and database entry models.
type EntryMapper struct{}

// NewEntryMapper creates a new EntryMapper instance.
func NewEntryMapper() *EntryMapper {
	return &EntryMapper{}
}

// ToDatabase converts a domain ClockEntry to a database Entry.
func (m *EntryMapper) ToDatabase(e *ClockEntry) repository.Entry {
	status := e.Status
	if status == "" {
		status = StatusUnverified
	}
	return repository.Entry{
		ID:            e.ID,
		UserID:        e.UserID,
		ProjectID:     e.ProjectID,
		ActivityID:    e.ActivityID,
		Status:        string(status),
		StartTime:     e.StartTime,
		EndTime:       copyTime(e.EndTime),
		SecondsPaused: e.SecondsPaused,
		PauseTime:     copyTime(e.PauseTime),
		Comments:      e.Comments,
		Hours:         e.Hours,
		Writedown:     e.Writedown,
		InvoiceID:     e.InvoiceID,
	}
}

// FromDatabase converts a database Entry to a domain ClockEntry.
func (m *EntryMapper) FromDatabase(row repository.Entry) *ClockEntry {
	return &ClockEntry{
		ID:            row.ID,
		UserID:        row.UserID,
		ProjectID:     row.ProjectID,
		ActivityID:    row.ActivityID,
		Status:        EntryStatus(row.Status),
		StartTime:     row.StartTime,
		EndTime:       copyTime(row.EndTime),
		SecondsPaused: row.SecondsPaused,
		PauseTime:     copyTime(row.PauseTime),
		Comments:      row.Comments,
		Hours:         row.Hours,
		Writedown:     row.Writedown,
		InvoiceID:     row.InvoiceID,
	}
}

// FromDatabaseSlice converts a slice of database entries to domain entries.
func (m *EntryMapper) FromDatabaseSlice(rows []repository.Entry) []*ClockEntry {
	entries := make([]*ClockEntry, len(rows))
	for i, row := range rows {
		entries[i] = m.FromDatabase(row)
	}
	return entries
}

// CatalogMapper handles conversion of projects and activities.
type CatalogMapper struct{}

// NewCatalogMapper creates a new CatalogMapper instance.
func NewCatalogMapper() *CatalogMapper {
	return &CatalogMapper{}
}

// ProjectToDatabase converts a domain Project to a database Project.
func (m *CatalogMapper) ProjectToDatabase(p Project) repository.Project {
	leave := p.Leave
	if leave == "" {
		leave = LeaveNone
	}
	return repository.Project{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Billable:    p.Billable,
		LeaveKind:   string(leave),
		ActivityIDs: append([]int64(nil), p.Activities...),
	}
}

// ProjectFromDatabase converts a database Project to a domain Project.
func (m *CatalogMapper) ProjectFromDatabase(row repository.Project) Project {
	return Project{
		ID:         row.ID,
		Code:       row.Code,
		Name:       row.Name,
		Billable:   row.Billable,
		Leave:      LeaveKind(row.LeaveKind),
		Activities: append([]int64(nil), row.ActivityIDs...),
	}
}

// ActivityToDatabase converts a domain Activity to a database Activity.
func (m *CatalogMapper) ActivityToDatabase(a Activity) repository.Activity {
	return repository.Activity{ID: a.ID, Code: a.Code, Name: a.Name, Billable: a.Billable}
}

// ActivityFromDatabase converts a database Activity to a domain Activity.
func (m *CatalogMapper) ActivityFromDatabase(row repository.Activity) Activity {
	return Activity{ID: row.ID, Code: row.Code, Name: row.Name, Billable: row.Billable}
}

// CatalogFromDatabase builds a Catalog from project and activity rows.
func (m *CatalogMapper) CatalogFromDatabase(projects []repository.Project, activities []repository.Activity) *Catalog {
	ps := make([]Project, len(projects))
	for i, p := range projects {
		ps[i] = m.ProjectFromDatabase(p)
	}
	as := make([]Activity, len(activities))
	for i, a := range activities {
		as[i] = m.ActivityFromDatabase(a)
	}
	return NewCatalog(ps, as)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
