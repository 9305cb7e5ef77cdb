package config

import (
	"context"
	"strings"

	"github.com/mmdatafocus/books_valuation/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantGuardPlugin scopes queries, updates and deletes to the request's business_id
// whenever the model carries a business_id column.
//
// Raw SQL is not scoped; callers must filter business_id themselves.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_guard:update", tenantGuardCallback); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("tenant_guard:delete", tenantGuardCallback)
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	ctx := db.Statement.Context
	if skip, _ := appctx.GetBool(ctx, appctx.ContextKeySkipTenantScope); skip {
		return
	}
	businessId := businessIdFromContext(ctx)
	if businessId == "" || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField("business_id") == nil {
		return
	}
	// an explicit filter wins
	if whereHasBusinessId(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "business_id"},
				Value:  businessId,
			},
		},
	})
}

func businessIdFromContext(ctx context.Context) string {
	v, _ := appctx.GetString(ctx, appctx.ContextKeyBusinessId)
	return v
}

func whereHasBusinessId(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasBusinessId(e) {
			return true
		}
	}
	return false
}

func exprHasBusinessId(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsBusinessId(v.Column)
	case clause.IN:
		return colIsBusinessId(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasBusinessId(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), "business_id")
	default:
		return false
	}
}

func colIsBusinessId(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "business_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "business_id")
	default:
		return false
	}
}
