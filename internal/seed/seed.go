// Package seed provisions the default accounts and the public sample
// templates on startup so a fresh deployment is immediately usable.
package seed

import (
	"context"
	"fmt"

	"github.com/stencild/stencild/internal/config"
	"github.com/stencild/stencild/internal/models"
	"github.com/stencild/stencild/internal/templates"
	"github.com/stencild/stencild/internal/users"
	"github.com/stencild/stencild/pkg/logger"
)

// Run creates the default admin/creator/user accounts and the sample public
// templates when they do not already exist. Safe to run on every startup.
func Run(ctx context.Context, cfg config.SeedConfig, usersSvc *users.Service, tplSvc *templates.Service) error {
	if _, err := ensureUser(ctx, usersSvc, "admin@example.com", "Administrator", cfg.AdminPassword, "ADMIN"); err != nil {
		return err
	}
	creator, err := ensureUser(ctx, usersSvc, "creator@example.com", "Creator", cfg.CreatorPassword, "CREATOR")
	if err != nil {
		return err
	}
	if _, err := ensureUser(ctx, usersSvc, "user@example.com", "User", cfg.UserPassword, "USER"); err != nil {
		return err
	}

	for name, content := range sampleTemplates {
		if err := ensureTemplate(ctx, tplSvc, creator, name, content); err != nil {
			return err
		}
	}
	return nil
}

func ensureUser(ctx context.Context, svc *users.Service, email, name, password, role string) (*models.User, error) {
	u, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("seed lookup %s: %w", email, err)
	}
	if u != nil {
		return u, nil
	}
	u, err = svc.Register(ctx, email, name, password, role)
	if err != nil {
		return nil, fmt.Errorf("seed register %s: %w", email, err)
	}
	logger.Infof("seed: created %s account %s", role, email)
	return u, nil
}

func ensureTemplate(ctx context.Context, svc *templates.Service, owner *models.User, name, content string) error {
	existing, err := svc.List(ctx, owner)
	if err != nil {
		return fmt.Errorf("seed list templates: %w", err)
	}
	for _, t := range existing {
		if t.Name == name {
			return nil
		}
	}
	if _, err := svc.Create(ctx, owner, name, content, true); err != nil {
		return fmt.Errorf("seed create template %q: %w", name, err)
	}
	logger.Infof("seed: created template %q", name)
	return nil
}

// sampleTemplates are the public starter documents owned by the default
// creator account.
var sampleTemplates = map[string]string{
	"Invoice with line items": `<html>
<head>
    <title>Invoice</title>
</head>
<body>
    <h1>Invoice</h1>
    <p>Customer: {{customer}}</p>
    <p>Date: {{date}}</p>
    <p>Items:</p>
    <ul>
        {{#items}}
        <li>{{description}} - {{quantity}} x {{unit_price}} = {{total}}</li>
        {{/items}}
    </ul>
    <p>Total: {{invoice_total}}</p>
</body>
</html>`,
	"Work estimate": `<html>
<head>
    <title>Estimate</title>
</head>
<body>
    <h2>{{company_name}}</h2>
    <p>{{place_and_date}}</p>
    <p>For: {{customer_name}}</p>
    <table>
        <tr><th>Qty</th><th>Concept</th><th>Unit</th><th>Amount</th></tr>
        {{#lines}}
        <tr><td>{{quantity}}</td><td>{{description}}</td><td>{{unit_price}}</td><td>{{amount}}</td></tr>
        {{/lines}}
        {{^lines}}
        <tr><td colspan="4">&nbsp;</td></tr>
        {{/lines}}
    </table>
    <p>Subtotal: $ {{subtotal}} / Tax: $ {{tax}} / Total: $ {{grand_total}}</p>
</body>
</html>`,
}
