package domain

// Agent is an externally operated process that owns real cache data and
// exposes its own HTTP API. The control plane stores its base URL and the API
// key it was issued; the agent presents the key back on callback routes, and
// the relay presents the same key when calling the agent.
type Agent struct {
	Document
	Name   string `json:"name"`
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
	Active bool   `json:"active"`
}

func (a *Agent) Doc() *Document { return &a.Document }
