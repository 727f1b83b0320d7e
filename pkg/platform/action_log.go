package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	actionLogsResource = "action_logs"

	MaxTitleLen = 85
	MaxBodyLen  = 255
)

// ActionLog is an entry on the agent's activity stream about one contact.
type ActionLog struct {
	// AgentUUID is the RFC 4122 Platform ID of the agent.
	AgentUUID string `json:"agent_uuid,omitempty"`
	// MoxiWorksAgentID is the vendor-assigned agent ID.
	MoxiWorksAgentID string `json:"moxi_works_agent_id,omitempty"`
	// MoxiWorksContactID is the Platform's ID for the contact.
	MoxiWorksContactID string `json:"moxi_works_contact_id,omitempty"`
	// PartnerContactID is the partner system's own ID for the contact.
	PartnerContactID string `json:"partner_contact_id,omitempty"`
	Title            string `json:"title,omitempty"`
	Body             string `json:"body,omitempty"`

	// Actions holds the raw entries read back by SearchActionLogs.
	Actions []Action `json:"actions,omitempty"`
}

// Action is one raw entry returned by an ActionLog search. LogData depends on
// Type and is passed through untouched.
type Action struct {
	MoxiWorksActionLogID string          `json:"moxi_works_action_log_id"`
	Type                 string          `json:"type"`
	Timestamp            int64           `json:"timestamp"`
	LogData              json.RawMessage `json:"log_data,omitempty"`
}

func (a Action) Time() time.Time {
	return time.Unix(a.Timestamp, 0).UTC()
}

func (a Action) empty() bool {
	return a.MoxiWorksActionLogID == "" && a.Type == "" && a.Timestamp == 0 && len(a.LogData) == 0
}

// CreateActionLogParams are the named parameters of CreateActionLog. All are
// required.
type CreateActionLogParams struct {
	MoxiWorksAgentID string `json:"moxi_works_agent_id"`
	PartnerContactID string `json:"partner_contact_id"`
	Title            string `json:"title"`
	Body             string `json:"body"`
}

// Validate checks the parameters as they will be sent, with surrounding
// whitespace removed.
func (p CreateActionLogParams) Validate() error {
	p = p.trimmed()
	if err := requireParam("moxi_works_agent_id", p.MoxiWorksAgentID); err != nil {
		return err
	}
	for _, f := range []struct{ name, value string }{
		{"partner_contact_id", p.PartnerContactID},
		{"title", p.Title},
		{"body", p.Body},
	} {
		if err := requireParam(f.name, f.value); err != nil {
			return err
		}
	}
	if err := maxLen("title", p.Title, MaxTitleLen); err != nil {
		return err
	}
	return maxLen("body", p.Body, MaxBodyLen)
}

func (p CreateActionLogParams) trimmed() CreateActionLogParams {
	return CreateActionLogParams{
		MoxiWorksAgentID: strings.TrimSpace(p.MoxiWorksAgentID),
		PartnerContactID: strings.TrimSpace(p.PartnerContactID),
		Title:            strings.TrimSpace(p.Title),
		Body:             strings.TrimSpace(p.Body),
	}
}

func (p CreateActionLogParams) values() url.Values {
	p = p.trimmed()
	v := url.Values{}
	v.Set("moxi_works_agent_id", p.MoxiWorksAgentID)
	v.Set("partner_contact_id", p.PartnerContactID)
	v.Set("title", p.Title)
	v.Set("body", p.Body)
	return v
}

// SearchActionLogParams select one agent/contact pair. Exactly one agent
// identifier and exactly one contact identifier must be set.
type SearchActionLogParams struct {
	AgentUUID          string `json:"agent_uuid,omitempty"`
	MoxiWorksAgentID   string `json:"moxi_works_agent_id,omitempty"`
	PartnerContactID   string `json:"partner_contact_id,omitempty"`
	MoxiWorksContactID string `json:"moxi_works_contact_id,omitempty"`
}

func (p SearchActionLogParams) Validate() error {
	if err := exactlyOne([]string{"agent_uuid", "moxi_works_agent_id"}, p.AgentUUID, p.MoxiWorksAgentID); err != nil {
		return err
	}
	if !blank(p.AgentUUID) {
		if err := requireUUID("agent_uuid", strings.TrimSpace(p.AgentUUID)); err != nil {
			return err
		}
	}
	return exactlyOne([]string{"partner_contact_id", "moxi_works_contact_id"}, p.PartnerContactID, p.MoxiWorksContactID)
}

func (p SearchActionLogParams) values() url.Values {
	v := url.Values{}
	for k, val := range map[string]string{
		"agent_uuid":            canonicalUUID(p.AgentUUID),
		"moxi_works_agent_id":   p.MoxiWorksAgentID,
		"partner_contact_id":    p.PartnerContactID,
		"moxi_works_contact_id": p.MoxiWorksContactID,
	} {
		if !blank(val) {
			v.Set(k, strings.TrimSpace(val))
		}
	}
	return v
}

// CreateActionLog creates a new ActionLog entry on the Platform.
func (c *Client) CreateActionLog(ctx context.Context, p CreateActionLogParams) (*ActionLog, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sent := p.trimmed()
	entry := &ActionLog{
		MoxiWorksAgentID: sent.MoxiWorksAgentID,
		PartnerContactID: sent.PartnerContactID,
		Title:            sent.Title,
		Body:             sent.Body,
	}
	if _, err := c.do(ctx, http.MethodPost, actionLogsResource, sent.values(), &createReply{entry}); err != nil {
		return nil, err
	}
	return entry, nil
}

// createReply merges a JSON object reply into the prefilled entry. Any other
// JSON value leaves the entry as sent.
type createReply struct {
	entry *ActionLog
}

func (r *createReply) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	return json.Unmarshal(b, r.entry)
}

type actionLogSearchResponse struct {
	Actions []*Action `json:"actions"`
}

// SearchActionLogs returns the ActionLog entries recorded for one agent and
// contact. The Platform answers with a single page.
func (c *Client) SearchActionLogs(ctx context.Context, p SearchActionLogParams) (*ResponseArray[Action], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var resp actionLogSearchResponse
	headers, err := c.do(ctx, http.MethodGet, actionLogsResource, p.values(), &resp)
	if err != nil {
		return nil, err
	}

	results := &ResponseArray[Action]{
		PageNumber: 1,
		TotalPages: 1,
		Headers:    headers,
		Items:      make([]Action, 0, len(resp.Actions)),
	}
	for _, a := range resp.Actions {
		if a == nil || a.empty() {
			continue
		}
		results.Append(*a)
	}
	return results, nil
}
