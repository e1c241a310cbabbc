package http

import (
	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
)

func toSDKScript(s domain.Script) adminsdk.Script {
	return adminsdk.Script(s)
}

func toSDKScripts(in []domain.Script) []adminsdk.Script {
	out := make([]adminsdk.Script, len(in))
	for i, s := range in {
		out[i] = toSDKScript(s)
	}
	return out
}

func fromSDKScript(s adminsdk.Script) domain.Script {
	return domain.Script(s)
}

func fromSDKScripts(in []adminsdk.Script) []domain.Script {
	out := make([]domain.Script, len(in))
	for i, s := range in {
		out[i] = fromSDKScript(s)
	}
	return out
}

func toSDKAuditEntries(in []domain.AuditEntry) []adminsdk.AuditEntry {
	out := make([]adminsdk.AuditEntry, len(in))
	for i, e := range in {
		out[i] = adminsdk.AuditEntry(e)
	}
	return out
}
