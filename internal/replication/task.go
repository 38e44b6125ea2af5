package replication

import "encoding/json"

// Task transfers one source dataset into one target dataset.
//
// SourceSpace and TargetSpace hold space names. Resolve them through the
// owning Replication with SpaceByName.
type Task struct {
	Name          string
	Description   string
	SourceDataset string
	TargetDataset string
	SourceSpace   string
	TargetSpace   string
	LoadType      LoadType
	Truncate      bool

	// Mappings are carried verbatim. The service currently always receives [].
	Mappings []json.RawMessage

	filters TaskFilters
}

// NewTask creates a task with the defaults the service expects: an INITIAL
// load, no truncate, no mappings and no filters.
func NewTask(name string) *Task {
	return &Task{
		Name:     name,
		LoadType: LoadTypeInitial,
	}
}

// Filters returns the filter collection of the task.
func (t *Task) Filters() *TaskFilters {
	return &t.filters
}

// Filter restricts the rows a task transfers on one field.
type Filter struct {
	Field         string
	Operator      FilterOperator
	Operand       string
	SecondOperand string
}

// FilterElement is one comparison inside a FilterGroup.
type FilterElement struct {
	Comparison FilterOperator `json:"comparison"`
	Low        string         `json:"low"`
}

// FilterGroup collects every comparison on one field, in insertion order.
type FilterGroup struct {
	Name     string          `json:"name"`
	Elements []FilterElement `json:"elements"`
}

// TaskFilters keeps filters as a flat list and as groups keyed by field name.
// The groups are what the service receives.
type TaskFilters struct {
	list   []Filter
	groups []FilterGroup
}

// Add appends a filter. A filter on a field that already has one is added to
// that field's group instead of starting a new group.
func (f *TaskFilters) Add(field string, op FilterOperator, operand string) {
	f.add(Filter{Field: field, Operator: op, Operand: operand})
}

// AddRange appends a filter whose operator takes two operands.
func (f *TaskFilters) AddRange(field string, op FilterOperator, low, high string) {
	f.add(Filter{Field: field, Operator: op, Operand: low, SecondOperand: high})
}

func (f *TaskFilters) add(filter Filter) {
	f.list = append(f.list, filter)

	element := FilterElement{Comparison: filter.Operator, Low: filter.Operand}
	for i := range f.groups {
		if f.groups[i].Name == filter.Field {
			f.groups[i].Elements = append(f.groups[i].Elements, element)
			return
		}
	}
	f.groups = append(f.groups, FilterGroup{
		Name:     filter.Field,
		Elements: []FilterElement{element},
	})
}

// List returns the filters in the order they were added.
func (f *TaskFilters) List() []Filter {
	out := make([]Filter, len(f.list))
	copy(out, f.list)
	return out
}

// Groups returns the filters grouped by field name, in first-seen order.
func (f *TaskFilters) Groups() []FilterGroup {
	out := make([]FilterGroup, len(f.groups))
	for i, g := range f.groups {
		out[i] = FilterGroup{
			Name:     g.Name,
			Elements: append([]FilterElement(nil), g.Elements...),
		}
	}
	return out
}

// Len returns the number of filters.
func (f *TaskFilters) Len() int {
	return len(f.list)
}

// setGroups replaces the collection with decoded groups and rebuilds the flat list.
func (f *TaskFilters) setGroups(groups []FilterGroup) {
	f.list = nil
	f.groups = nil
	for _, g := range groups {
		elements := append([]FilterElement{}, g.Elements...)
		f.groups = append(f.groups, FilterGroup{Name: g.Name, Elements: elements})
		for _, e := range g.Elements {
			f.list = append(f.list, Filter{Field: g.Name, Operator: e.Comparison, Operand: e.Low})
		}
	}
}
