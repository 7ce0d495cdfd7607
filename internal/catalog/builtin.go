package catalog

import "github.com/mesh-intelligence/backoffice/pkg/types"

func ep(path string) *types.Endpoint { return &types.Endpoint{Path: path} }

// crud declares the usual REST endpoints under base.
func crud(base string) types.Operations {
	return types.Operations{
		Get:          ep(base + "/{id}"),
		List:         ep(base),
		Create:       ep(base),
		Update:       ep(base + "/{id}"),
		Remove:       ep(base + "/{id}"),
		UpdateStatus: ep(base + "/{id}"),
	}
}

// subTab declares a tab whose items live in a sub-collection of the entity.
func subTab(kind types.TabKind, base, name string, columns ...string) types.TabConfig {
	list := base + "/{id}/" + name
	return types.TabConfig{
		Kind:       kind,
		Enabled:    true,
		ListPath:   list,
		CreatePath: list,
		UpdatePath: list + "/{itemId}",
		DeletePath: list + "/{itemId}",
		Columns:    columns,
	}
}

var accountStatuses = []string{"active", "suspended", "blocked"}

var activeSegment = types.Segment{Name: "active", Field: "status", Values: []string{"active"}}

// Builtin returns the built-in back-office resources. Some deliberately
// omit operations their backend does not offer.
func Builtin() []types.ResourceConfig {
	return []types.ResourceConfig{
		{
			Key:           "parents",
			Title:         "Parents",
			StatusOptions: accountStatuses,
			Operations:    crud("/parents"),
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID", Sortable: true},
				{Name: "name", Label: "Name", Editable: true, Sortable: true},
				{Name: "email", Label: "Email", Editable: true},
				{Name: "phone", Label: "Phone", Editable: true},
				{Name: "address.city", Label: "City", Editable: true, Hidden: true},
				{Name: "status", Label: "Status", Type: types.FieldSelect, Options: accountStatuses},
				{Name: "created_at", Label: "Created", Type: types.FieldDate, Sortable: true, Hidden: true},
			},
			Tabs: []types.TabConfig{
				subTab(types.TabRelated, "/parents", "students", "id", "name", "grade"),
				subTab(types.TabTasks, "/parents", "tasks", "title", "done"),
				subTab(types.TabDocuments, "/parents", "documents", "title"),
				subTab(types.TabCommunication, "/parents", "comments", "text", "created_at"),
				{Kind: types.TabBilling, Enabled: true, ListPath: "/parents/{id}/invoices", Columns: []string{"number", "total", "status"}},
				{Kind: types.TabAudit, Enabled: true, ListPath: "/parents/{id}/audit"},
			},
			Segments: []types.Segment{activeSegment},
		},
		{
			Key:           "students",
			Title:         "Students",
			StatusOptions: accountStatuses,
			Operations:    crud("/students"),
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID", Sortable: true},
				{Name: "name", Label: "Name", Editable: true, Sortable: true},
				{Name: "grade", Label: "Grade", Type: types.FieldSelect, Options: []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"}, Editable: true, Sortable: true},
				{Name: "birthday", Label: "Birthday", Type: types.FieldDate, Editable: true},
				{Name: "parent_id", Label: "Parent"},
				{Name: "status", Label: "Status", Type: types.FieldSelect, Options: accountStatuses},
			},
			Tabs: []types.TabConfig{
				subTab(types.TabTasks, "/students", "tasks", "title", "done"),
				subTab(types.TabDocuments, "/students", "documents", "title"),
				{Kind: types.TabCommunication, Enabled: false},
				{Kind: types.TabActivity, Enabled: true, ListPath: "/students/{id}/activity"},
			},
			Segments: []types.Segment{activeSegment},
		},
		{
			Key:   "subjects",
			Title: "Subjects",
			Operations: types.Operations{
				Get:    ep("/subjects/{id}"),
				List:   ep("/subjects"),
				Create: ep("/subjects"),
				Update: ep("/subjects/{id}"),
				Remove: ep("/subjects/{id}"),
			},
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID", Sortable: true},
				{Name: "name", Label: "Name", Editable: true, Sortable: true},
				{Name: "level", Label: "Level", Type: types.FieldSelect, Options: []string{"primary", "secondary"}, Editable: true},
				{Name: "description", Label: "Description", Editable: true, Hidden: true},
			},
		},
		{
			Key:        "products",
			Title:      "Products",
			Operations: crud("/products"),
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID", Sortable: true},
				{Name: "name", Label: "Name", Editable: true, Sortable: true},
				{Name: "price", Label: "Price", Type: types.FieldNumber, Editable: true, Sortable: true},
				{Name: "currency", Label: "Currency", Type: types.FieldSelect, Options: []string{"KES", "TZS", "UGX", "USD"}, Editable: true},
				{Name: "status", Label: "Status", Type: types.FieldSelect, Options: []string{"active", "archived"}},
			},
			StatusOptions: []string{"active", "archived"},
			Segments:      []types.Segment{activeSegment},
		},
		{
			Key:   "invoices",
			Title: "Invoices",
			Operations: types.Operations{
				Get:          ep("/invoices/{id}"),
				List:         ep("/invoices"),
				UpdateStatus: ep("/invoices/{id}"),
			},
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID"},
				{Name: "number", Label: "Number", Sortable: true},
				{Name: "parent_id", Label: "Parent"},
				{Name: "total", Label: "Total", Type: types.FieldNumber, Sortable: true},
				{Name: "due", Label: "Due", Type: types.FieldDate, Sortable: true},
				{Name: "status", Label: "Status", Type: types.FieldSelect, Options: []string{"draft", "sent", "paid", "void"}},
			},
			StatusOptions: []string{"draft", "sent", "paid", "void"},
			Segments:      []types.Segment{{Name: "open", Field: "status", Values: []string{"draft", "sent"}}},
			Tabs:          []types.TabConfig{{Kind: types.TabAudit, Enabled: true, ListPath: "/invoices/{id}/audit"}},
		},
		{
			Key:   "coupons",
			Title: "Coupons",
			Operations: types.Operations{
				List:   ep("/coupons"),
				Create: ep("/coupons"),
				Remove: ep("/coupons/{id}"),
			},
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID"},
				{Name: "code", Label: "Code", Sortable: true},
				{Name: "percent_off", Label: "% Off", Type: types.FieldNumber, Sortable: true},
				{Name: "expires", Label: "Expires", Type: types.FieldDate, Sortable: true},
			},
		},
		{
			Key:   "blog-posts",
			Title: "Blog posts",
			Operations: types.Operations{
				Get:          ep("/blog-posts/{id}"),
				List:         ep("/blog-posts"),
				Create:       ep("/blog-posts"),
				Update:       ep("/blog-posts/{id}"),
				UpdateStatus: ep("/blog-posts/{id}"),
			},
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID"},
				{Name: "title", Label: "Title", Editable: true, Sortable: true},
				{Name: "author.name", Label: "Author", Editable: true},
				{Name: "published", Label: "Published", Type: types.FieldDate, Editable: true, Sortable: true},
				{Name: "status", Label: "Status", Type: types.FieldSelect, Options: []string{"draft", "published"}},
			},
			StatusOptions: []string{"draft", "published"},
			Tabs:          []types.TabConfig{subTab(types.TabCommunication, "/blog-posts", "comments", "text", "created_at")},
		},
		{
			Key:        "subscriptions",
			Title:      "Subscriptions",
			Operations: crud("/subscriptions"),
			Fields: []types.FieldSpec{
				{Name: "id", Label: "ID"},
				{Name: "parent_id", Label: "Parent"},
				{Name: "plan", Label: "Plan", Type: types.FieldSelect, Options: []string{"monthly", "termly", "yearly"}, Editable: true, Sortable: true},
				{Name: "renews", Label: "Renews", Type: types.FieldDate, Editable: true, Sortable: true},
				{Name: "status", Label: "Status", Type: types.FieldSelect, Options: accountStatuses},
			},
			StatusOptions: accountStatuses,
			Segments:      []types.Segment{activeSegment},
			Tabs: []types.TabConfig{
				{Kind: types.TabBilling, Enabled: true, ListPath: "/subscriptions/{id}/invoices"},
				{Kind: types.TabActivity, Enabled: true, ListPath: "/subscriptions/{id}/activity"},
			},
		},
	}
}
