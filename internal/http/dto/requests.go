package dto

type CreateActionLogRequest struct {
	MoxiWorksAgentID string `json:"moxi_works_agent_id"`
	PartnerContactID string `json:"partner_contact_id"`
	Title            string `json:"title"`
	Body             string `json:"body"`
}

// SearchActionLogsQuery is bound from the query string.
type SearchActionLogsQuery struct {
	AgentUUID          string `query:"agent_uuid"`
	MoxiWorksAgentID   string `query:"moxi_works_agent_id"`
	PartnerContactID   string `query:"partner_contact_id"`
	MoxiWorksContactID string `query:"moxi_works_contact_id"`
}
