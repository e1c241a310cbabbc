package http

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/httpx"
)

// Budgets holds the fixed-window budget of every rate limited route.
type Budgets struct {
	Login         httpx.Budget
	Refresh       httpx.Budget
	Logout        httpx.Budget
	CSRF          httpx.Budget
	ScriptsRead   httpx.Budget
	ScriptsWrite  httpx.Budget
	ScriptsDelete httpx.Budget
	BackupExport  httpx.Budget
	BackupRestore httpx.Budget
	AuditWrite    httpx.Budget
	AuditRead     httpx.Budget
	Settings      httpx.Budget
}

func DefaultBudgets() Budgets {
	return Budgets{
		Login:         httpx.Budget{Name: "login", Limit: 5, Window: time.Minute},
		Refresh:       httpx.Budget{Name: "refresh", Limit: 3, Window: time.Minute},
		Logout:        httpx.Budget{Name: "logout", Limit: 10, Window: time.Minute},
		CSRF:          httpx.Budget{Name: "csrf", Limit: 20, Window: time.Minute},
		ScriptsRead:   httpx.Budget{Name: "scripts_read", Limit: 20, Window: time.Minute},
		ScriptsWrite:  httpx.Budget{Name: "scripts_write", Limit: 10, Window: time.Minute},
		ScriptsDelete: httpx.Budget{Name: "scripts_delete", Limit: 5, Window: time.Minute},
		BackupExport:  httpx.Budget{Name: "backup_export", Limit: 3, Window: time.Minute},
		BackupRestore: httpx.Budget{Name: "backup_restore", Limit: 1, Window: 5 * time.Minute},
		AuditWrite:    httpx.Budget{Name: "audit_write", Limit: 20, Window: time.Minute},
		AuditRead:     httpx.Budget{Name: "audit_read", Limit: 10, Window: time.Minute},
		Settings:      httpx.Budget{Name: "settings", Limit: 10, Window: time.Minute},
	}
}

// BudgetsFromEnv applies RATELIMIT_<NAME>_REQUESTS and
// RATELIMIT_<NAME>_WINDOW_SEC overrides to the defaults, e.g.
// RATELIMIT_LOGIN_REQUESTS=10.
func BudgetsFromEnv() Budgets {
	b := DefaultBudgets()
	for _, p := range b.all() {
		*p = httpx.ParseBudgetFromEnv(strings.ToUpper(p.Name), *p)
	}
	return b
}

func (b *Budgets) all() []*httpx.Budget {
	return []*httpx.Budget{
		&b.Login, &b.Refresh, &b.Logout, &b.CSRF,
		&b.ScriptsRead, &b.ScriptsWrite, &b.ScriptsDelete,
		&b.BackupExport, &b.BackupRestore,
		&b.AuditWrite, &b.AuditRead, &b.Settings,
	}
}
