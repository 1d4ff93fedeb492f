package domain

// Viewer is the authenticated user behind a request, resolved from a bearer
// token issued by the host application.
type Viewer struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// RequestMeta is everything the tracking layer needs about an inbound request
type RequestMeta struct {
	SessionID string
	IPAddress string
	UserAgent string
	Viewer    *Viewer
}

// ViewerID returns nil for anonymous requests
func (m RequestMeta) ViewerID() *string {
	if m.Viewer == nil || m.Viewer.ID == "" {
		return nil
	}
	id := m.Viewer.ID
	return &id
}
