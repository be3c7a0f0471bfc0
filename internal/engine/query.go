package engine

import "skillssync/internal/model"

// FindSkill returns the skill record with the given synthetic id from the
// most recent snapshot (spec §4.1 find_skill).
func (e *Engine) FindSkill(id string) (model.SkillRecord, bool) {
	for _, r := range e.Latest().Skills {
		if r.ID == id {
			return r, true
		}
	}
	return model.SkillRecord{}, false
}

// FindSubagent returns the subagent record with the given synthetic id.
func (e *Engine) FindSubagent(id string) (model.SubagentRecord, bool) {
	for _, r := range e.Latest().Subagents {
		if r.ID == id {
			return r, true
		}
	}
	return model.SubagentRecord{}, false
}

// ListSkills returns every skill record, optionally filtered by scope (an
// empty scope returns every record).
func (e *Engine) ListSkills(scopeFilter model.Scope) []model.SkillRecord {
	all := e.Latest().Skills
	if scopeFilter == "" {
		return append([]model.SkillRecord(nil), all...)
	}
	var out []model.SkillRecord
	for _, r := range all {
		if r.Scope == scopeFilter {
			out = append(out, r)
		}
	}
	return out
}

// ListSubagents is the subagent analog of ListSkills.
func (e *Engine) ListSubagents(scopeFilter model.Scope) []model.SubagentRecord {
	all := e.Latest().Subagents
	if scopeFilter == "" {
		return append([]model.SubagentRecord(nil), all...)
	}
	var out []model.SubagentRecord
	for _, r := range all {
		if r.Scope == scopeFilter {
			out = append(out, r)
		}
	}
	return out
}

// ListMcpServers returns every discovered remote-tool server record.
func (e *Engine) ListMcpServers() []model.McpServerRecord {
	return append([]model.McpServerRecord(nil), e.Latest().McpServers...)
}
