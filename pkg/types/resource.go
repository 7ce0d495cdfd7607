package types

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldType selects how a field is rendered and edited.
type FieldType string

// Field types.
const (
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
	FieldDate   FieldType = "date"
	FieldNumber FieldType = "number"
)

// FieldSpec declares one field (or list column) of a resource.
type FieldSpec struct {
	Name     string    `json:"name" mapstructure:"name" yaml:"name" validate:"required"`
	Label    string    `json:"label,omitempty" mapstructure:"label" yaml:"label,omitempty"`
	Type     FieldType `json:"type,omitempty" mapstructure:"type" yaml:"type,omitempty" validate:"omitempty,oneof=text select date number"`
	Editable bool      `json:"editable,omitempty" mapstructure:"editable" yaml:"editable,omitempty"`
	Options  []string  `json:"options,omitempty" mapstructure:"options" yaml:"options,omitempty" validate:"required_if=Type select"`
	Hidden   bool      `json:"hidden,omitempty" mapstructure:"hidden" yaml:"hidden,omitempty"`
	Sortable bool      `json:"sortable,omitempty" mapstructure:"sortable" yaml:"sortable,omitempty"`
}

// Title returns the column header for the field.
func (f FieldSpec) Title() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Operation names a resource-level gateway operation.
type Operation string

// Resource operations.
const (
	OpGet          Operation = "get"
	OpList         Operation = "list"
	OpCreate       Operation = "create"
	OpUpdate       Operation = "update"
	OpRemove       Operation = "remove"
	OpUpdateStatus Operation = "update_status"
)

// defaultMethods maps each operation to the HTTP verb used when an Endpoint
// leaves Method empty.
var defaultMethods = map[Operation]string{
	OpGet:          "GET",
	OpList:         "GET",
	OpCreate:       "POST",
	OpUpdate:       "PATCH",
	OpRemove:       "DELETE",
	OpUpdateStatus: "PATCH",
}

// Endpoint is a path template plus verb. The template may contain {id}.
type Endpoint struct {
	Method string `json:"method,omitempty" mapstructure:"method" yaml:"method,omitempty" validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Path   string `json:"path" mapstructure:"path" yaml:"path" validate:"required,startswith=/"`
}

// Build expands {id} in the path template.
func (e *Endpoint) Build(id string) string {
	return ExpandPath(e.Path, id, "")
}

// ExpandPath replaces {id} and {itemId} in a path template with escaped values.
func ExpandPath(tmpl, id, itemID string) string {
	out := strings.ReplaceAll(tmpl, "{id}", url.PathEscape(id))
	return strings.ReplaceAll(out, "{itemId}", url.PathEscape(itemID))
}

// Operations lists the optional endpoints of a resource. A nil endpoint means
// the resource does not support the operation.
type Operations struct {
	Get          *Endpoint `json:"get,omitempty" mapstructure:"get" yaml:"get,omitempty"`
	List         *Endpoint `json:"list,omitempty" mapstructure:"list" yaml:"list,omitempty"`
	Create       *Endpoint `json:"create,omitempty" mapstructure:"create" yaml:"create,omitempty"`
	Update       *Endpoint `json:"update,omitempty" mapstructure:"update" yaml:"update,omitempty"`
	Remove       *Endpoint `json:"remove,omitempty" mapstructure:"remove" yaml:"remove,omitempty"`
	UpdateStatus *Endpoint `json:"update_status,omitempty" mapstructure:"update_status" yaml:"update_status,omitempty"`
}

// Endpoint returns the endpoint for op, or nil when it is not configured.
func (o Operations) Endpoint(op Operation) *Endpoint {
	switch op {
	case OpGet:
		return o.Get
	case OpList:
		return o.List
	case OpCreate:
		return o.Create
	case OpUpdate:
		return o.Update
	case OpRemove:
		return o.Remove
	case OpUpdateStatus:
		return o.UpdateStatus
	}
	return nil
}

// Capabilities records which operations a resource supports. Engines compute
// it once at construction instead of probing the config at every call site.
type Capabilities struct {
	Get, List, Create, Update, Remove, UpdateStatus bool
}

// TabKind identifies a detail sub-view.
type TabKind string

// Tab kinds.
const (
	TabInformation   TabKind = "information"
	TabRelated       TabKind = "related"
	TabTasks         TabKind = "tasks"
	TabDocuments     TabKind = "documents"
	TabCommunication TabKind = "communication"
	TabBilling       TabKind = "billing"
	TabAudit         TabKind = "audit"
	TabActivity      TabKind = "activity"
)

// TabKinds lists every tab kind in navigation order.
var TabKinds = []TabKind{
	TabInformation,
	TabRelated,
	TabTasks,
	TabDocuments,
	TabCommunication,
	TabBilling,
	TabAudit,
	TabActivity,
}

// TabConfig declares one detail tab. Paths may contain {id} (the entity id)
// and {itemId} (the sub-resource id).
type TabConfig struct {
	Kind       TabKind  `json:"kind" mapstructure:"kind" yaml:"kind" validate:"required,oneof=information related tasks documents communication billing audit activity"`
	Enabled    bool     `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Title      string   `json:"title,omitempty" mapstructure:"title" yaml:"title,omitempty"`
	ListPath   string   `json:"list_path,omitempty" mapstructure:"list_path" yaml:"list_path,omitempty" validate:"omitempty,startswith=/"`
	CreatePath string   `json:"create_path,omitempty" mapstructure:"create_path" yaml:"create_path,omitempty" validate:"omitempty,startswith=/"`
	UpdatePath string   `json:"update_path,omitempty" mapstructure:"update_path" yaml:"update_path,omitempty" validate:"omitempty,startswith=/"`
	DeletePath string   `json:"delete_path,omitempty" mapstructure:"delete_path" yaml:"delete_path,omitempty" validate:"omitempty,startswith=/"`
	Columns    []string `json:"columns,omitempty" mapstructure:"columns" yaml:"columns,omitempty"`
}

// Segment is a named list restriction such as "active only".
type Segment struct {
	Name   string   `json:"name" mapstructure:"name" yaml:"name" validate:"required"`
	Field  string   `json:"field" mapstructure:"field" yaml:"field" validate:"required"`
	Values []string `json:"values" mapstructure:"values" yaml:"values" validate:"min=1"`
}

// Matches reports whether the entity's field equals one of the segment values.
func (s Segment) Matches(e Entity) bool {
	v, ok := e.Lookup(s.Field)
	if !ok {
		return false
	}
	str := Stringify(v)
	for _, want := range s.Values {
		if strings.EqualFold(str, want) {
			return true
		}
	}
	return false
}

// FallbackMode selects what an engine produces when an operation is missing
// or fails.
type FallbackMode string

// Fallback modes.
const (
	FallbackEmpty       FallbackMode = "empty"
	FallbackPlaceholder FallbackMode = "placeholder"
	FallbackCached      FallbackMode = "cached"
	FallbackRethrow     FallbackMode = "rethrow"
)

// FallbackPolicy declares the fallback for one operation.
type FallbackPolicy struct {
	OnMissing FallbackMode `json:"on_missing,omitempty" mapstructure:"on_missing" yaml:"on_missing,omitempty" validate:"omitempty,oneof=empty placeholder cached rethrow"`
	OnFailure FallbackMode `json:"on_failure,omitempty" mapstructure:"on_failure" yaml:"on_failure,omitempty" validate:"omitempty,oneof=empty placeholder cached rethrow"`
}

// Fallbacks holds the per-operation fallback policies.
type Fallbacks struct {
	Get  FallbackPolicy `json:"get" mapstructure:"get" yaml:"get"`
	List FallbackPolicy `json:"list" mapstructure:"list" yaml:"list"`
}

// ResourceConfig is the static description of one resource type. It is
// owned by the caller and treated as immutable by the engines.
type ResourceConfig struct {
	Key           string      `json:"key" mapstructure:"key" yaml:"key" validate:"required,excludesall=./"`
	Title         string      `json:"title,omitempty" mapstructure:"title" yaml:"title,omitempty"`
	IDField       string      `json:"id_field,omitempty" mapstructure:"id_field" yaml:"id_field,omitempty"`
	RouteBase     string      `json:"route_base,omitempty" mapstructure:"route_base" yaml:"route_base,omitempty" validate:"omitempty,startswith=/"`
	StatusField   string      `json:"status_field,omitempty" mapstructure:"status_field" yaml:"status_field,omitempty"`
	StatusOptions []string    `json:"status_options,omitempty" mapstructure:"status_options" yaml:"status_options,omitempty"`
	Operations    Operations  `json:"operations" mapstructure:"operations" yaml:"operations"`
	Fields        []FieldSpec `json:"fields" mapstructure:"fields" yaml:"fields" validate:"min=1,dive"`
	Tabs          []TabConfig `json:"tabs,omitempty" mapstructure:"tabs" yaml:"tabs,omitempty" validate:"dive"`
	Segments      []Segment   `json:"segments,omitempty" mapstructure:"segments" yaml:"segments,omitempty" validate:"dive"`
	Fallbacks     Fallbacks   `json:"fallbacks" mapstructure:"fallbacks" yaml:"fallbacks"`
}

// validate is shared; validator caches struct metadata per type.
var validate = validator.New(validator.WithRequiredStructEnabled())

// nonEditableName matches identifiers and timestamps by their last path
// segment; such fields are never editable.
var (
	nonEditableExact  = regexp.MustCompile(`(?i)^(id|uuid|pk)$`)
	nonEditableSuffix = regexp.MustCompile(`(_id|Id|_at|At|_uuid|Uuid)$`)
)

// IsNonEditableName reports whether a field name looks like an identifier or
// a timestamp.
func IsNonEditableName(name string) bool {
	last := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		last = name[i+1:]
	}
	return nonEditableExact.MatchString(last) || nonEditableSuffix.MatchString(last)
}

// Validate checks struct tags, endpoint sanity, and cross references
// between fields, segments and tabs.
func (c ResourceConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, c.Key, err)
	}
	for _, op := range []Operation{OpGet, OpList, OpCreate, OpUpdate, OpRemove, OpUpdateStatus} {
		ep := c.Operations.Endpoint(op)
		if ep == nil {
			continue
		}
		if err := validate.Struct(ep); err != nil {
			return fmt.Errorf("%w: %s: %s endpoint: %v", ErrInvalidConfig, c.Key, op, err)
		}
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidConfig, c.Key, f.Name)
		}
		seen[f.Name] = true
	}
	tabs := make(map[TabKind]bool, len(c.Tabs))
	for _, t := range c.Tabs {
		if tabs[t.Kind] {
			return fmt.Errorf("%w: %s: duplicate tab %q", ErrInvalidConfig, c.Key, t.Kind)
		}
		tabs[t.Kind] = true
	}
	return nil
}

// Normalize returns a copy with defaults applied: id field "id", status
// field "status", route base "/{key}", endpoint verbs, tab titles, fallback
// policies, and editability forced off for identifiers and timestamps.
func (c ResourceConfig) Normalize() ResourceConfig {
	out := c
	if out.IDField == "" {
		out.IDField = "id"
	}
	if out.StatusField == "" {
		out.StatusField = "status"
	}
	if out.RouteBase == "" {
		out.RouteBase = "/" + out.Key
	}
	if out.Title == "" {
		out.Title = out.Key
	}

	out.Operations = Operations{
		Get:          withMethod(c.Operations.Get, OpGet),
		List:         withMethod(c.Operations.List, OpList),
		Create:       withMethod(c.Operations.Create, OpCreate),
		Update:       withMethod(c.Operations.Update, OpUpdate),
		Remove:       withMethod(c.Operations.Remove, OpRemove),
		UpdateStatus: withMethod(c.Operations.UpdateStatus, OpUpdateStatus),
	}

	out.Fields = make([]FieldSpec, len(c.Fields))
	for i, f := range c.Fields {
		if f.Type == "" {
			f.Type = FieldText
		}
		if f.Name == out.IDField || IsNonEditableName(f.Name) {
			f.Editable = false
		}
		f.Options = append([]string(nil), f.Options...)
		out.Fields[i] = f
	}

	out.Tabs = make([]TabConfig, len(c.Tabs))
	for i, t := range c.Tabs {
		if t.Title == "" && t.Kind != "" {
			t.Title = strings.ToUpper(string(t.Kind[:1])) + string(t.Kind[1:])
		}
		t.Columns = append([]string(nil), t.Columns...)
		out.Tabs[i] = t
	}
	out.Segments = append([]Segment(nil), c.Segments...)
	out.StatusOptions = append([]string(nil), c.StatusOptions...)

	if out.Fallbacks.List.OnMissing == "" {
		out.Fallbacks.List.OnMissing = FallbackEmpty
	}
	if out.Fallbacks.List.OnFailure == "" {
		out.Fallbacks.List.OnFailure = FallbackEmpty
	}
	if out.Fallbacks.Get.OnMissing == "" {
		out.Fallbacks.Get.OnMissing = FallbackPlaceholder
	}
	if out.Fallbacks.Get.OnFailure == "" {
		out.Fallbacks.Get.OnFailure = FallbackCached
	}
	return out
}

func withMethod(ep *Endpoint, op Operation) *Endpoint {
	if ep == nil {
		return nil
	}
	cp := *ep
	if cp.Method == "" {
		cp.Method = defaultMethods[op]
	}
	cp.Method = strings.ToUpper(cp.Method)
	return &cp
}

// Capabilities reports which operations are configured.
func (c ResourceConfig) Capabilities() Capabilities {
	return Capabilities{
		Get:          c.Operations.Get != nil,
		List:         c.Operations.List != nil,
		Create:       c.Operations.Create != nil,
		Update:       c.Operations.Update != nil,
		Remove:       c.Operations.Remove != nil,
		UpdateStatus: c.Operations.UpdateStatus != nil,
	}
}

// Field returns the field spec with the given name.
func (c ResourceConfig) Field(name string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Tab returns the tab config of the given kind.
func (c ResourceConfig) Tab(kind TabKind) (TabConfig, bool) {
	for _, t := range c.Tabs {
		if t.Kind == kind {
			return t, true
		}
	}
	return TabConfig{}, false
}

// Segment returns the segment with the given name.
func (c ResourceConfig) Segment(name string) (Segment, bool) {
	for _, s := range c.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// RowRoute is the detail route of an entity: {routeBase}/{id}.
func (c ResourceConfig) RowRoute(id string) string {
	return strings.TrimRight(c.RouteBase, "/") + "/" + url.PathEscape(id)
}

// EditRoute is the edit route of an entity: {routeBase}/{id}/edit.
func (c ResourceConfig) EditRoute(id string) string {
	return c.RowRoute(id) + "/edit"
}

// Placeholder is the minimal entity shown when the real one cannot be loaded.
func (c ResourceConfig) Placeholder(id string) Entity {
	e := Entity{"name": "-"}
	e.Set(c.IDField, id)
	e.Set(c.StatusField, "active")
	return e
}
