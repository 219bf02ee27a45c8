package httpapi

import "time"

// addStreamRequest is the POST /streams body (§6).
type addStreamRequest struct {
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
	DownScale bool   `json:"down_scale"`
	Expirable bool   `json:"expirable"`
}

// putStreamRequest is the PUT /streams/{id} body (§6).
type putStreamRequest struct {
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
	DownScale bool   `json:"down_scale"`
}

// streamResponse is returned by POST and PUT (§6).
type streamResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// streamListEntry is one element of the GET /streams response (§6).
type streamListEntry struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	AddedAt        time.Time  `json:"added_at"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// errorEnvelope is the uniform error body (§6, §7).
type errorEnvelope struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
