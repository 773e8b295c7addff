package entities

// Project groups datasets owned by one user
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ProjectDir  string    `json:"project_dir"`
	ReadOnly    bool      `json:"read_only"`
	UserOwnerID string    `json:"user_owner_id,omitempty"`
	DatasetList []Dataset `json:"dataset_list,omitempty"`
}

// ProjectCreate is the body of a project creation request
type ProjectCreate struct {
	Name               string `json:"name"`
	ProjectDir         string `json:"project_dir"`
	DefaultDatasetName string `json:"default_dataset_name,omitempty"`
}

// Dataset is a named collection of resources inside a project
type Dataset struct {
	ID           int64          `json:"id"`
	ProjectID    int64          `json:"project_id"`
	Name         string         `json:"name"`
	Type         *string        `json:"type,omitempty"`
	Meta         map[string]any `json:"meta"`
	ReadOnly     bool           `json:"read_only"`
	ResourceList []Resource     `json:"resource_list,omitempty"`
}

// DatasetCreate is the body of an add-dataset request
type DatasetCreate struct {
	Name string         `json:"name"`
	Type *string        `json:"type,omitempty"`
	Meta map[string]any `json:"meta"`
}

// DatasetUpdate carries only the fields a dataset edit changes. Meta is
// a pointer to a map so that "reset to empty" and "leave alone" differ.
type DatasetUpdate struct {
	Name     *string         `json:"name,omitempty"`
	Type     *string         `json:"type,omitempty"`
	Meta     *map[string]any `json:"meta,omitempty"`
	ReadOnly *bool           `json:"read_only,omitempty"`
}

// IsEmpty reports whether the update would change nothing
func (u DatasetUpdate) IsEmpty() bool {
	return u.Name == nil && u.Type == nil && u.Meta == nil && u.ReadOnly == nil
}

// Resource is a path (optionally a glob) attached to a dataset
type Resource struct {
	ID          int64  `json:"id"`
	DatasetID   int64  `json:"dataset_id"`
	Path        string `json:"path"`
	GlobPattern string `json:"glob_pattern,omitempty"`
}

// ResourceCreate is the body of an add-resource request
type ResourceCreate struct {
	Path        string `json:"path"`
	GlobPattern string `json:"glob_pattern,omitempty"`
}
