package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails is an RFC 7807 problem document. Extensions such as
// trace_id, error_type or the required/got counts of an insufficient-history
// failure are written as top-level members.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]interface{}
}

// NewProblemDetails creates a problem with no extensions.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension sets an extension member and returns pd for chaining.
// Extensions never override the standard members.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// Render implements render.Renderer.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	members := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		members[k] = v
	}
	members["type"] = pd.Type
	members["title"] = pd.Title
	members["status"] = pd.Status
	if pd.Detail != "" {
		members["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		members["instance"] = pd.Instance
	}
	return json.Marshal(members)
}
